// Package canvas holds the drawing surface, the tool state and the stroke
// engine that rasterises freehand input onto the surface.
package canvas

import (
	"image"
	"image/draw"
	"sync"
)

// Surface is the single shared raster that strokes are drawn onto. Only one
// logical writer acts on it at a time; the mutex guards the image pointer so
// a painter goroutine always sees either the old or the new image.
type Surface struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// NewSurface returns a transparent surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{img: blank(width, height)}
}

// NewSurfaceFrom copies src onto a zero-origin surface.
func NewSurfaceFrom(src image.Image) *Surface {
	b := src.Bounds()
	img := blank(b.Dx(), b.Dy())
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Surface{img: img}
}

func blank(width, height int) *image.RGBA {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Image returns the current raster. Callers must not keep it across a
// Replace if they need a stable copy; use Clone for that.
func (s *Surface) Image() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

func (s *Surface) Bounds() image.Rectangle {
	return s.Image().Bounds()
}

// Modify runs fn with exclusive access to the raster.
func (s *Surface) Modify(fn func(img *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.img)
}

// View runs fn with shared access to the raster. fn must not retain img.
func (s *Surface) View(fn func(img *image.RGBA)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.img)
}

// Clone returns a deep copy of the current raster.
func (s *Surface) Clone() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Replace swaps in img as the visible content in one step.
func (s *Surface) Replace(img *image.RGBA) {
	s.mu.Lock()
	s.img = img
	s.mu.Unlock()
}

// Resize discards the content and allocates a transparent raster of the new
// size. History re-renders into it afterwards.
func (s *Surface) Resize(width, height int) {
	s.Replace(blank(width, height))
}

// Clear makes every pixel transparent while keeping the size.
func (s *Surface) Clear() {
	b := s.Bounds()
	s.Replace(blank(b.Dx(), b.Dy()))
}

// Extract returns a copy of rect as a standalone zero-origin image. Areas
// of rect outside the surface are left transparent.
func (s *Surface) Extract(rect image.Rectangle) *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return extract(s.img, rect)
}

func extract(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	src := rect.Intersect(img.Bounds())
	if !src.Empty() {
		draw.Draw(out, src.Sub(rect.Min), img, src.Min, draw.Src)
	}
	return out
}
