package canvas

import (
	"image"
	"image/color"
	"strconv"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"rgb(231, 76, 60)", color.RGBA{231, 76, 60, 255}},
		{"RGB(1,2,3)", color.RGBA{1, 2, 3, 255}},
		{"#ff8000", color.RGBA{255, 128, 0, 255}},
		{"#ff800080", color.RGBA{128, 64, 0, 128}},
		{"blue", color.RGBA{52, 152, 219, 255}},
		{"navy", color.RGBA{0, 0, 128, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
	for _, bad := range []string{"", "rgb(1,2)", "rgb(300,0,0)", "#12", "nope"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) expected error", bad)
		}
	}
}

func TestSetWidthClamps(t *testing.T) {
	tools := NewTools()
	if got := tools.SetWidth(0); got != MinWidth {
		t.Fatalf("SetWidth(0) = %d, want %d", got, MinWidth)
	}
	if got := tools.SetWidth(99); got != MaxWidth {
		t.Fatalf("SetWidth(99) = %d, want %d", got, MaxWidth)
	}
	if got := tools.Width(); got != MaxWidth {
		t.Fatalf("Width() = %d, want %d", got, MaxWidth)
	}
}

func TestPenPaintsAndFiresHook(t *testing.T) {
	s := NewSurface(40, 40)
	tools := NewTools()
	tools.SetColor(color.RGBA{R: 255, A: 255})
	tools.SetWidth(5)
	ended := 0
	e := NewEngine(s, tools, func() { ended++ })

	e.Begin(image.Pt(5, 20))
	e.Extend(image.Pt(35, 20))
	if got := s.Image().RGBAAt(20, 20); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("pixel on stroke = %+v", got)
	}
	if got := s.Image().RGBAAt(20, 30); got.A != 0 {
		t.Fatalf("pixel off stroke should stay transparent, got %+v", got)
	}
	if ended != 0 {
		t.Fatal("hook fired before End")
	}
	e.End()
	if ended != 1 {
		t.Fatalf("hook fired %d times, want 1", ended)
	}
	e.End()
	if ended != 1 {
		t.Fatal("End without an active stroke must not fire the hook")
	}
}

func TestEraserLeavesTransparentPixels(t *testing.T) {
	s := NewSurface(20, 20)
	img := s.Image()
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	tools := NewTools()
	tools.SetTool(ToolEraser)
	tools.SetWidth(3)
	e := NewEngine(s, tools, nil)
	e.Begin(image.Pt(2, 10))
	e.Extend(image.Pt(17, 10))
	e.End()

	if got := img.RGBAAt(10, 10); got != (color.RGBA{}) {
		t.Fatalf("erased pixel = %+v, want fully transparent", got)
	}
	if got := img.RGBAAt(10, 2); got.A != 0xff {
		t.Fatalf("pixel away from eraser changed: %+v", got)
	}
}

func TestDisabledEngineIgnoresInput(t *testing.T) {
	s := NewSurface(10, 10)
	e := NewEngine(s, NewTools(), func() { t.Fatal("hook must not fire") })
	e.SetEnabled(false)
	if e.Begin(image.Pt(1, 1)) {
		t.Fatal("Begin should report false while disabled")
	}
	e.Extend(image.Pt(8, 8))
	e.End()
	for _, v := range s.Image().Pix {
		if v != 0 {
			t.Fatal("surface changed while disabled")
		}
	}
}

func TestExtractOutsideIsTransparent(t *testing.T) {
	s := NewSurface(10, 10)
	s.Image().Set(9, 9, color.RGBA{G: 255, A: 255})
	out := s.Extract(image.Rect(5, 5, 15, 15))
	if !out.Bounds().Eq(image.Rect(0, 0, 10, 10)) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(4, 4); got != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("copied pixel = %+v", got)
	}
	if got := out.RGBAAt(8, 8); got.A != 0 {
		t.Fatalf("outside pixel = %+v", got)
	}
}

func TestStrokeThicknessMatchesWidth(t *testing.T) {
	for _, width := range []int{1, 2, 3, 4, 20} {
		t.Run(strconv.Itoa(width), func(t *testing.T) {
			s := NewSurface(60, 60)
			tools := NewTools()
			tools.SetWidth(width)
			e := NewEngine(s, tools, nil)
			e.Begin(image.Pt(10, 30))
			e.Extend(image.Pt(50, 30))
			e.End()

			img := s.Image()
			painted, first, last := 0, -1, -1
			for y := 0; y < 60; y++ {
				if img.RGBAAt(30, y).A == 0 {
					continue
				}
				painted++
				if first < 0 {
					first = y
				}
				last = y
			}
			if painted != width {
				t.Fatalf("column thickness = %d, want %d", painted, width)
			}
			if last-first+1 != painted {
				t.Fatalf("column has gaps between rows %d and %d", first, last)
			}
		})
	}
}

func TestTranslucentPenBlendsOverStroke(t *testing.T) {
	s := NewSurface(20, 20)
	tools := NewTools()
	e := NewEngine(s, tools, nil)

	tools.SetColor(color.RGBA{B: 255, A: 255})
	tools.SetWidth(10)
	e.Begin(image.Pt(2, 10))
	e.Extend(image.Pt(18, 10))
	e.End()

	red, err := ParseColor("#ff000080")
	if err != nil {
		t.Fatal(err)
	}
	tools.SetColor(red)
	tools.SetWidth(4)
	e.Begin(image.Pt(2, 10))
	e.Extend(image.Pt(18, 10))
	e.End()

	got := s.Image().RGBAAt(10, 10)
	want := color.RGBA{128, 0, 127, 255}
	near := func(a, b uint8) bool { return a-b <= 1 || b-a <= 1 }
	if !near(got.R, want.R) || !near(got.G, want.G) || !near(got.B, want.B) || got.A != want.A {
		t.Fatalf("blended pixel = %+v, want about %+v", got, want)
	}
}
