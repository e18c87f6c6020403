package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/example/scribblelens/internal/analysis"
	"github.com/example/scribblelens/internal/panel"
	"github.com/example/scribblelens/internal/theme"
)

const (
	PanelTitle = "Analysis"
	LinksTitle = "Related links"

	cardPad       = 10
	blockGap      = 6
	minCardHeight = 80
	maxCardHeight = 420
)

type cardLink struct {
	title []string
	url   string
}

type cardLayout struct {
	summary []string
	links   []cardLink
}

// layoutCard must be called with faceMu held.
func layoutCard(r analysis.Result, width int) cardLayout {
	inner := width - 2*cardPad
	l := cardLayout{summary: Wrap(bodyFace, Flatten(r.Summary), inner)}
	for _, link := range r.Links {
		l.links = append(l.links, cardLink{
			title: Wrap(titleFace, link.DisplayTitle(), inner),
			url:   Elide(bodyFace, link.URL, inner),
		})
	}
	return l
}

func (l cardLayout) height() int {
	lh := lineHeight(bodyFace)
	th := lineHeight(titleFace)
	h := panel.TitleBarHeight + cardPad + len(l.summary)*lh
	if len(l.links) > 0 {
		h += blockGap + th
		for _, link := range l.links {
			h += blockGap + len(link.title)*th + lh
		}
	}
	return h + cardPad
}

// Measure sizes a panel for r. It is installed as the panel manager's
// measure function.
func Measure(r analysis.Result) image.Point {
	faceMu.Lock()
	defer faceMu.Unlock()
	h := layoutCard(r, panel.DefaultWidth).height()
	return image.Pt(panel.DefaultWidth, min(max(h, minCardHeight), maxCardHeight))
}

// Panel draws p onto dst. Content that does not fit the panel is clipped.
func Panel(dst *image.RGBA, p panel.Panel, th *theme.Theme, closeHover bool) {
	b := p.Bounds()
	DrawShadow(dst, b, DefaultShadowOptions())
	FillRect(dst, b, th.PanelBackground)

	bar := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+panel.TitleBarHeight)
	FillRect(dst, bar, th.PanelTitleBar)
	closeBox := p.CloseBox()
	closeCol := th.PanelClose
	if closeHover {
		closeCol = lighten(closeCol)
	}
	FillRect(dst, closeBox, closeCol)
	drawCross(dst, closeBox.Inset(5), th.PanelTitleText)
	StrokeRect(dst, b, th.PanelBorder, 1)

	faceMu.Lock()
	defer faceMu.Unlock()

	titleArea := image.Rect(bar.Min.X, bar.Min.Y, closeBox.Min.X-4, bar.Max.Y)
	title := dst.SubImage(titleArea).(*image.RGBA)
	tm := titleFace.Metrics()
	baseline := bar.Min.Y + (panel.TitleBarHeight-tm.Ascent.Ceil()-tm.Descent.Ceil())/2 + tm.Ascent.Ceil()
	(&font.Drawer{Dst: title, Src: image.NewUniform(th.PanelTitleText), Face: titleFace,
		Dot: fixed.P(b.Min.X+cardPad, baseline)}).DrawString(PanelTitle)

	body := dst.SubImage(image.Rect(b.Min.X+1, bar.Max.Y, b.Max.X-1, b.Max.Y-1)).(*image.RGBA)
	l := layoutCard(p.Result, p.Size.X)
	x := b.Min.X + cardPad
	y := bar.Max.Y + cardPad
	text := image.NewUniform(th.PanelText)
	link := image.NewUniform(th.PanelLink)

	y = drawLines(body, bodyFace, text, x, y, l.summary)
	if len(l.links) == 0 {
		return
	}
	y += blockGap
	y = drawLines(body, titleFace, text, x, y, []string{LinksTitle})
	for _, cl := range l.links {
		if y >= b.Max.Y {
			return
		}
		y += blockGap
		y = drawLines(body, titleFace, link, x, y, cl.title)
		y = drawLines(body, bodyFace, text, x, y, []string{cl.url})
	}
}

// drawLines draws lines top-down from y and returns the y below the last.
func drawLines(dst draw.Image, face font.Face, src image.Image, x, y int, lines []string) int {
	lh := lineHeight(face)
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{Dst: dst, Src: src, Face: face}
	for _, line := range lines {
		d.Dot = fixed.P(x, y+ascent)
		d.DrawString(line)
		y += lh
	}
	return y
}

func drawCross(dst draw.Image, r image.Rectangle, c color.Color) {
	n := min(r.Dx(), r.Dy())
	for i := 0; i < n; i++ {
		for t := 0; t < 2; t++ {
			dst.Set(r.Min.X+i+t, r.Min.Y+i, c)
			dst.Set(r.Min.X+n-1-i+t, r.Min.Y+i, c)
		}
	}
}

func lighten(c color.RGBA) color.RGBA {
	up := func(v uint8) uint8 { return v + (255-v)/3 }
	return color.RGBA{up(c.R), up(c.G), up(c.B), c.A}
}
