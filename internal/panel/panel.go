// Package panel manages the floating result panels: placement next to the
// analysed region, dragging, closing and timed expiry.
package panel

import (
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/scribblelens/internal/analysis"
)

const (
	DefaultLifetime = 30 * time.Second
	// Gap separates a new panel from the right edge of its region.
	Gap = 12

	DefaultWidth   = 320
	DefaultHeight  = 220
	TitleBarHeight = 24
	CloseBoxSize   = 18
)

// Part identifies what a point hits on a panel.
type Part int

const (
	PartNone Part = iota
	PartBody
	PartTitle
	PartClose
)

// Panel is a snapshot of one open panel.
type Panel struct {
	ID        string
	Position  image.Point
	Size      image.Point
	Result    analysis.Result
	ExpiresAt time.Time
}

// Bounds is the panel rectangle in window coordinates.
func (p Panel) Bounds() image.Rectangle {
	return image.Rectangle{Min: p.Position, Max: p.Position.Add(p.Size)}
}

// CloseBox is the close control in the top-right corner of the title bar.
func (p Panel) CloseBox() image.Rectangle {
	inset := (TitleBarHeight - CloseBoxSize) / 2
	x1 := p.Position.X + p.Size.X - inset
	y0 := p.Position.Y + inset
	return image.Rect(x1-CloseBoxSize, y0, x1, y0+CloseBoxSize)
}

// Hit reports which part of the panel pt falls on.
func (p Panel) Hit(pt image.Point) Part {
	switch {
	case pt.In(p.CloseBox()):
		return PartClose
	case !pt.In(p.Bounds()):
		return PartNone
	case pt.Y < p.Position.Y+TitleBarHeight:
		return PartTitle
	default:
		return PartBody
	}
}

type entry struct {
	Panel
	timer Timer
}

type gesture struct {
	id      string
	grab    image.Point
	start   image.Point
	closing bool
	moved   bool
}

// Manager owns every open panel. It is called from the input thread, from
// analysis goroutines and from expiry timers.
type Manager struct {
	mu       sync.Mutex
	panels   []*entry
	clock    Clock
	lifetime time.Duration
	measure  func(analysis.Result) image.Point
	onChange func()
	active   *gesture
}

type Option func(*Manager)

func WithClock(c Clock) Option { return func(m *Manager) { m.clock = c } }

// WithLifetime sets how long a panel stays open. Non-positive values keep
// the default.
func WithLifetime(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.lifetime = d
		}
	}
}

// WithMeasure sets the function that sizes a panel for its content.
func WithMeasure(fn func(analysis.Result) image.Point) Option {
	return func(m *Manager) { m.measure = fn }
}

// WithOnChange registers a callback fired after panels are added, moved or
// removed. It runs without the manager lock held.
func WithOnChange(fn func()) Option { return func(m *Manager) { m.onChange = fn } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:    systemClock{},
		lifetime: DefaultLifetime,
		measure: func(analysis.Result) image.Point {
			return image.Pt(DefaultWidth, DefaultHeight)
		},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Present opens a panel to the right of anchor and schedules its removal.
func (m *Manager) Present(anchor image.Point, r analysis.Result) string {
	id := uuid.NewString()
	e := &entry{Panel: Panel{
		ID:        id,
		Position:  anchor.Add(image.Pt(Gap, 0)),
		Size:      m.measure(r),
		Result:    r,
		ExpiresAt: m.clock.Now().Add(m.lifetime),
	}}
	m.mu.Lock()
	m.panels = append(m.panels, e)
	e.timer = m.clock.AfterFunc(m.lifetime, func() { m.expire(id) })
	m.mu.Unlock()
	m.changed()
	return id
}

// Close removes the panel and cancels its expiry. It reports whether the
// panel was open.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	e := m.remove(id)
	m.mu.Unlock()
	if e == nil {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	m.changed()
	return true
}

func (m *Manager) expire(id string) {
	m.mu.Lock()
	e := m.remove(id)
	m.mu.Unlock()
	if e != nil {
		m.changed()
	}
}

// remove must be called with mu held.
func (m *Manager) remove(id string) *entry {
	for i, e := range m.panels {
		if e.ID != id {
			continue
		}
		m.panels = append(m.panels[:i], m.panels[i+1:]...)
		if m.active != nil && m.active.id == id {
			m.active = nil
		}
		return e
	}
	return nil
}

func (m *Manager) find(id string) *entry {
	for _, e := range m.panels {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Panels returns the open panels bottom to top.
func (m *Manager) Panels() []Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Panel, len(m.panels))
	for i, e := range m.panels {
		out[i] = e.Panel
	}
	return out
}

func (m *Manager) Get(id string) (Panel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.find(id); e != nil {
		return e.Panel, true
	}
	return Panel{}, false
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.panels)
}

// Top returns the most recently presented or raised panel.
func (m *Manager) Top() (Panel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.panels) == 0 {
		return Panel{}, false
	}
	return m.panels[len(m.panels)-1].Panel, true
}

// HitTest returns the topmost panel under pt.
func (m *Manager) HitTest(pt image.Point) (string, Part) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.panels) - 1; i >= 0; i-- {
		if part := m.panels[i].Hit(pt); part != PartNone {
			return m.panels[i].ID, part
		}
	}
	return "", PartNone
}

// BeginDrag captures the pointer offset inside the panel.
func (m *Manager) BeginDrag(id string, pointer image.Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(id)
	if e == nil {
		return false
	}
	m.active = &gesture{id: id, grab: pointer.Sub(e.Position), start: pointer}
	m.raise(e)
	return true
}

// DragTo moves the dragged panel so the grab offset stays under pointer.
func (m *Manager) DragTo(pointer image.Point) bool {
	m.mu.Lock()
	g := m.active
	var e *entry
	if g != nil {
		e = m.find(g.id)
	}
	if e == nil {
		m.mu.Unlock()
		return false
	}
	if pointer != g.start {
		g.moved = true
		g.closing = false
	}
	e.Position = pointer.Sub(g.grab)
	m.mu.Unlock()
	m.changed()
	return true
}

// EndDrag finishes the gesture. The expiry timer is left as it was.
func (m *Manager) EndDrag() {
	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()
}

// Dragging reports whether a panel gesture is in progress.
func (m *Manager) Dragging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Press routes a pointer-down. It reports whether a panel consumed it.
// Every press on a panel starts a drag; a press on the close box also arms
// the close control.
func (m *Manager) Press(pt image.Point) bool {
	id, part := m.HitTest(pt)
	if part == PartNone {
		return false
	}
	if !m.BeginDrag(id, pt) {
		return false
	}
	if part == PartClose {
		m.mu.Lock()
		if m.active != nil {
			m.active.closing = true
		}
		m.mu.Unlock()
	}
	return true
}

// Release ends the gesture. The panel closes only when the press started on
// its close box, the pointer never moved and it is released on the box.
func (m *Manager) Release(pt image.Point) bool {
	m.mu.Lock()
	g := m.active
	m.active = nil
	var closeID string
	if g != nil && g.closing && !g.moved {
		if e := m.find(g.id); e != nil && pt.In(e.CloseBox()) {
			closeID = g.id
		}
	}
	m.mu.Unlock()
	if closeID != "" {
		m.Close(closeID)
	}
	return g != nil
}

// raise moves e to the top. mu must be held.
func (m *Manager) raise(e *entry) {
	for i, p := range m.panels {
		if p == e {
			m.panels = append(append(m.panels[:i:i], m.panels[i+1:]...), e)
			return
		}
	}
}

func (m *Manager) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}
