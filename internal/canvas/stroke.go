package canvas

import (
	"image"
	"image/color"
	"image/draw"
)

// Engine renders freehand strokes onto a Surface using the active Tools.
type Engine struct {
	surface *Surface
	tools   *Tools
	onEnd   func()

	enabled bool
	active  bool
	last    image.Point
}

// NewEngine returns an enabled engine. onEnd runs after every finished
// stroke; the history manager's Snapshot is wired here.
func NewEngine(s *Surface, t *Tools, onEnd func()) *Engine {
	return &Engine{surface: s, tools: t, onEnd: onEnd, enabled: true}
}

// SetEnabled toggles stroke input. Disabling abandons nothing: the
// selection machine only disables the engine while no stroke is active.
func (e *Engine) SetEnabled(enabled bool) { e.enabled = enabled }

func (e *Engine) Enabled() bool { return e.enabled }

func (e *Engine) Active() bool { return e.active }

// Begin starts a new path at p. It reports false when input is suppressed.
func (e *Engine) Begin(p image.Point) bool {
	if !e.enabled {
		return false
	}
	e.active = true
	e.last = p
	return true
}

// Extend composites the segment from the last point to p immediately.
func (e *Engine) Extend(p image.Point) {
	if !e.active {
		return
	}
	tool, col, width := e.tools.Snapshot()
	from := e.last
	e.surface.Modify(func(img *image.RGBA) {
		paintSegment(img, from, p, tool, col, width)
	})
	e.last = p
}

// End finalises the path and fires the completion hook.
func (e *Engine) End() {
	if !e.active {
		return
	}
	e.active = false
	if e.onEnd != nil {
		e.onEnd()
	}
}

// paintSegment stamps discs of diameter width along the Bresenham line from
// a to b into a mask, then composites the mask once so overlapping stamps of
// a translucent pen do not accumulate within one segment.
func paintSegment(img *image.RGBA, a, b image.Point, tool Tool, col color.RGBA, width int) {
	w := ClampWidth(width)
	bounds := image.Rect(a.X, a.Y, a.X+1, a.Y+1).Union(image.Rect(b.X, b.Y, b.X+1, b.Y+1)).Inset(-w / 2)
	area := bounds.Intersect(img.Bounds())
	if area.Empty() {
		return
	}
	mask := image.NewAlpha(bounds)
	walkLine(a, b, func(x, y int) {
		stampDisc(mask, x, y, w)
	})
	switch tool {
	case ToolEraser:
		clearMasked(img, area, mask)
	default:
		draw.DrawMask(img, area, image.NewUniform(col), image.Point{}, mask, area.Min, draw.Over)
	}
}

// clearMasked zeroes every pixel of img under the mask. draw.Src would also
// zero the unmasked part of area, so the eraser writes pixels directly.
func clearMasked(img *image.RGBA, area image.Rectangle, mask *image.Alpha) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if mask.AlphaAt(x, y).A == 0 {
				continue
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 0, 0
		}
	}
}

func walkLine(a, b image.Point, plot func(x, y int)) {
	x0, y0, x1, y1 := a.X, a.Y, b.X, b.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// stampDisc covers exactly w pixels across. Odd widths centre on pixel
// (cx, cy); even widths centre on its top-left corner. Distances are kept
// doubled so half-pixel centres stay integral.
func stampDisc(mask *image.Alpha, cx, cy, w int) {
	half := w / 2
	odd := w % 2
	for dy := -half; dy <= half; dy++ {
		oy := 2*dy + 1 - odd
		for dx := -half; dx <= half; dx++ {
			ox := 2*dx + 1 - odd
			if ox*ox+oy*oy <= w*w {
				mask.SetAlpha(cx+dx, cy+dy, color.Alpha{A: 0xff})
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
