package render

import (
	"image"
	"image/color"
	"testing"
)

func TestDrawShadowOffsetAndBlur(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 60, 60))
	card := image.Rect(10, 10, 30, 30)
	DrawShadow(dst, card, ShadowOptions{Radius: 2, Offset: image.Pt(4, 4), Opacity: 1})

	if a := dst.RGBAAt(25, 25).A; a != 255 {
		t.Fatalf("alpha inside shadow = %d, want 255", a)
	}
	if a := dst.RGBAAt(5, 5).A; a != 0 {
		t.Fatalf("alpha away from shadow = %d, want 0", a)
	}
	// One pixel past the shifted right edge is only partly covered.
	if a := dst.RGBAAt(34, 20).A; a == 0 || a == 255 {
		t.Fatalf("alpha at blurred edge = %d, want partial", a)
	}
}

func TestDrawShadowZeroOpacity(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fill := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	FillRect(dst, dst.Bounds(), fill)
	DrawShadow(dst, image.Rect(2, 2, 10, 10), ShadowOptions{Radius: 3, Offset: image.Pt(2, 2), Opacity: 0})
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if got := dst.RGBAAt(x, y); got != fill {
				t.Fatalf("pixel (%d,%d) = %+v, want %+v", x, y, got, fill)
			}
		}
	}
}

func TestBlurAlphaKeepsUniformArea(t *testing.T) {
	src := image.NewAlpha(image.Rect(0, 0, 8, 8))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	out := blurAlpha(src, 3)
	for i, v := range out.Pix {
		if v != 200 {
			t.Fatalf("pix[%d] = %d, want 200", i, v)
		}
	}
}
