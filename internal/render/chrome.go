package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/example/scribblelens/internal/theme"
)

// FillRect fills r with c, blending when c is translucent.
func FillRect(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// StrokeRect outlines r with a border thick pixels wide drawn inside r.
func StrokeRect(dst draw.Image, r image.Rectangle, c color.Color, thick int) {
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick),
		image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thick, r.Max.Y),
		image.Rect(r.Max.X-thick, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// DashedRect outlines r with dashes alternating between c1 and c2, so the
// border stays visible over any drawing.
func DashedRect(dst draw.Image, r image.Rectangle, dash int, c1, c2 color.Color) {
	if dash < 1 {
		dash = 1
	}
	r = r.Canon()
	pick := func(i int) color.Color {
		if (i/dash)%2 == 0 {
			return c1
		}
		return c2
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		c := pick(x - r.Min.X)
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		c := pick(y - r.Min.Y)
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

// Selection draws the live selection rectangle: a translucent fill and a
// dashed border.
func Selection(dst draw.Image, r image.Rectangle, th *theme.Theme) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	FillRect(dst, r, th.SelectionFill)
	DashedRect(dst, r, 5, th.SelectionBorder, th.SelectionBorderAlt)
}

// Message draws msg in a box centred in bounds.
func Message(dst draw.Image, bounds image.Rectangle, msg string, th *theme.Theme) {
	faceMu.Lock()
	defer faceMu.Unlock()
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.MessageText), Face: messageFace}
	w := d.MeasureString(msg).Ceil()
	m := messageFace.Metrics()
	ascent, descent := m.Ascent.Ceil(), m.Descent.Ceil()
	px := bounds.Min.X + (bounds.Dx()-w)/2
	py := bounds.Min.Y + (bounds.Dy()-ascent-descent)/2 + ascent
	box := image.Rect(px-12, py-ascent-10, px+w+12, py+descent+10)
	FillRect(dst, box, th.MessageBackground)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

// Badge draws a small label whose bottom-right corner sits at corner. It is
// used for the loading indicator.
func Badge(dst draw.Image, corner image.Point, label string, th *theme.Theme) image.Rectangle {
	faceMu.Lock()
	defer faceMu.Unlock()
	w := font.MeasureString(bodyFace, label).Ceil()
	h := lineHeight(bodyFace)
	box := image.Rect(corner.X-w-16, corner.Y-h-10, corner.X, corner.Y)
	FillRect(dst, box, th.MessageBackground)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(th.MessageText),
		Face: bodyFace,
		Dot:  fixed.P(box.Min.X+8, box.Min.Y+5+bodyFace.Metrics().Ascent.Ceil()),
	}
	d.DrawString(label)
	return box
}
