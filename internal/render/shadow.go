package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow drawn beneath a panel.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  6,
		Offset:  image.Pt(3, 4),
		Opacity: 0.35,
	}
}

// DrawShadow paints a blurred shadow of the rectangle card onto dst, shifted
// by opts.Offset. Draw the card itself afterwards.
func DrawShadow(dst draw.Image, card image.Rectangle, opts ShadowOptions) {
	if card.Empty() || opts.Opacity <= 0 {
		return
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	padded := card.Inset(-radius)
	mask := image.NewAlpha(image.Rect(0, 0, padded.Dx(), padded.Dy()))
	draw.Draw(mask, card.Sub(padded.Min), image.Opaque, image.Point{}, draw.Src)
	blurred := blurAlpha(mask, radius)

	shade := image.NewUniform(color.RGBA{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, blurred.Bounds().Add(padded.Min.Add(opts.Offset)), shade, image.Point{}, blurred, image.Point{}, draw.Over)
}

// blurAlpha is a separable box blur using running sums per row and column.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	out := image.NewAlpha(src.Bounds())
	if radius <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tmp := image.NewAlpha(src.Bounds())
	boxPass(src.Pix, tmp.Pix, w, h, 1, src.Stride, radius)
	boxPass(tmp.Pix, out.Pix, h, w, tmp.Stride, 1, radius)
	return out
}

// boxPass averages along lines of n samples spaced step apart; lines are
// spaced stride apart.
func boxPass(src, dst []uint8, n, lines, step, stride, radius int) {
	prefix := make([]int, n+1)
	for l := 0; l < lines; l++ {
		base := l * stride
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + int(src[base+i*step])
		}
		for i := 0; i < n; i++ {
			lo, hi := max(i-radius, 0), min(i+radius, n-1)
			dst[base+i*step] = uint8((prefix[hi+1] - prefix[lo]) / (hi - lo + 1))
		}
	}
}
