// Package selection implements the region-selection mode that is mutually
// exclusive with drawing.
package selection

import (
	"errors"
	"image"
	"sync"
)

// MinSize is the exclusive lower bound on both sides of a selection that is
// handed on for analysis.
const MinSize = 10

var ErrAlreadyArmed = errors.New("selection already in progress")

type State int

const (
	Idle State = iota
	AwaitingStart
	Selecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingStart:
		return "awaiting-start"
	case Selecting:
		return "selecting"
	default:
		return "unknown"
	}
}

// Rect is the live selection: the pointer-down anchor and the latest point.
type Rect struct {
	Anchor  image.Point
	Current image.Point
}

// Normalize returns the rectangle spanned by the two points with Min at the
// top-left corner.
func (r Rect) Normalize() image.Rectangle {
	return image.Rectangle{Min: r.Anchor, Max: r.Current}.Canon()
}

// Listener is told about every state change. Drawing is re-enabled and the
// overlay hidden when it sees Idle.
type Listener func(from, to State)

// Machine tracks the selection mode. It is safe for use from several
// goroutines, though input normally arrives on one.
type Machine struct {
	mu       sync.Mutex
	state    State
	rect     Rect
	listener Listener
}

func New(l Listener) *Machine {
	return &Machine{listener: l}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Active reports whether selection mode is armed or a drag is in progress.
func (m *Machine) Active() bool {
	return m.State() != Idle
}

// Rect returns the live rectangle and whether a drag is in progress.
func (m *Machine) Rect() (Rect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rect, m.state == Selecting
}

// Arm enters selection mode.
func (m *Machine) Arm() error {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return ErrAlreadyArmed
	}
	m.transition(AwaitingStart)
	return nil
}

// Down anchors the selection at p. It reports false unless the machine was
// waiting for a start point.
func (m *Machine) Down(p image.Point) bool {
	m.mu.Lock()
	if m.state != AwaitingStart {
		m.mu.Unlock()
		return false
	}
	m.rect = Rect{Anchor: p, Current: p}
	m.transition(Selecting)
	return true
}

// Move updates the live corner while a drag is in progress.
func (m *Machine) Move(p image.Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Selecting {
		return false
	}
	m.rect.Current = p
	return true
}

// Up finishes the drag at p and tears selection mode down before returning.
// ok is true only when both sides of the normalised rectangle exceed
// MinSize; smaller selections are dropped without error.
func (m *Machine) Up(p image.Point) (r image.Rectangle, ok bool) {
	m.mu.Lock()
	if m.state != Selecting {
		m.mu.Unlock()
		return image.Rectangle{}, false
	}
	m.rect.Current = p
	r = m.rect.Normalize()
	m.rect = Rect{}
	m.transition(Idle)
	return r, r.Dx() > MinSize && r.Dy() > MinSize
}

// Cancel leaves selection mode from any state.
func (m *Machine) Cancel() {
	m.mu.Lock()
	if m.state == Idle {
		m.mu.Unlock()
		return
	}
	m.rect = Rect{}
	m.transition(Idle)
}

// transition must be called with mu held; it releases mu before notifying
// the listener so the listener may query the machine.
func (m *Machine) transition(to State) {
	from := m.state
	m.state = to
	l := m.listener
	m.mu.Unlock()
	if l != nil && from != to {
		l(from, to)
	}
}
