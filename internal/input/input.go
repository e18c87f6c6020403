// Package input converts window pointer and touch events into surface-local
// pointer events.
package input

import (
	"image"
	"math"

	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"
)

type Kind int

const (
	Down Kind = iota + 1
	Move
	Up
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	}
	return "none"
}

// Event is the single pointer shape consumed by drawing, selection and
// panels. Window is the unmapped position, used for hit-testing overlays.
type Event struct {
	Kind   Kind
	Point  image.Point
	Window image.Point
}

// Mapper maps window pixels to surface pixels. Origin is where the surface's
// top-left corner sits in the window.
type Mapper struct {
	Origin image.Point
	Zoom   float64

	pressed  bool
	touching bool
	sequence touch.Sequence
}

func NewMapper() *Mapper {
	return &Mapper{Zoom: 1}
}

// Map converts a window position to surface coordinates.
func (m *Mapper) Map(x, y float32) image.Point {
	zoom := m.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return image.Point{
		X: int(math.Floor((float64(x) - float64(m.Origin.X)) / zoom)),
		Y: int(math.Floor((float64(y) - float64(m.Origin.Y)) / zoom)),
	}
}

// ToWindow is the inverse of Map: it returns the window position of a
// surface point.
func (m *Mapper) ToWindow(p image.Point) image.Point {
	zoom := m.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return image.Point{
		X: m.Origin.X + int(math.Floor(float64(p.X)*zoom)),
		Y: m.Origin.Y + int(math.Floor(float64(p.Y)*zoom)),
	}
}

func (m *Mapper) event(k Kind, x, y float32) Event {
	return Event{
		Kind:   k,
		Point:  m.Map(x, y),
		Window: image.Pt(int(x), int(y)),
	}
}

// Mouse handles left-button presses, drags and releases. Hover without the
// button held and other buttons yield ok=false.
func (m *Mapper) Mouse(e mouse.Event) (Event, bool) {
	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft {
			return Event{}, false
		}
		m.pressed = true
		return m.event(Down, e.X, e.Y), true
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft || !m.pressed {
			return Event{}, false
		}
		m.pressed = false
		return m.event(Up, e.X, e.Y), true
	case mouse.DirNone:
		if !m.pressed {
			return Event{}, false
		}
		return m.event(Move, e.X, e.Y), true
	}
	return Event{}, false
}

// Touch maps the first active touch sequence onto the mouse event shape.
// Further fingers are ignored until that sequence ends.
func (m *Mapper) Touch(e touch.Event) (Event, bool) {
	switch e.Type {
	case touch.TypeBegin:
		if m.touching {
			return Event{}, false
		}
		m.touching = true
		m.sequence = e.Sequence
		return m.event(Down, e.X, e.Y), true
	case touch.TypeMove:
		if !m.touching || e.Sequence != m.sequence {
			return Event{}, false
		}
		return m.event(Move, e.X, e.Y), true
	case touch.TypeEnd:
		if !m.touching || e.Sequence != m.sequence {
			return Event{}, false
		}
		m.touching = false
		return m.event(Up, e.X, e.Y), true
	}
	return Event{}, false
}

// Hover maps a pointer position without a button held, for cursor feedback.
func (m *Mapper) Hover(e mouse.Event) image.Point {
	return m.Map(e.X, e.Y)
}
