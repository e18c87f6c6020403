package history

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sync"

	"github.com/example/scribblelens/internal/canvas"
)

// Manager binds a Stack to a canvas surface. It is the only writer of the
// stack.
type Manager struct {
	mu       sync.Mutex
	stack    *Stack
	surface  *canvas.Surface
	onChange func(canUndo, canRedo bool)
	encoder  png.Encoder
}

type Option func(*Manager)

// WithLimit overrides the number of retained snapshots.
func WithLimit(n int) Option {
	return func(m *Manager) { m.stack = NewStack(n) }
}

// WithOnChange registers a callback fired after every stack change with the
// current undo and redo availability.
func WithOnChange(fn func(canUndo, canRedo bool)) Option {
	return func(m *Manager) { m.onChange = fn }
}

// New returns a manager whose stack already holds a snapshot of s, so the
// first undo returns to that state.
func New(s *canvas.Surface, opts ...Option) (*Manager, error) {
	m := &Manager{
		stack:   NewStack(Limit),
		surface: s,
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
	}
	for _, o := range opts {
		o(m)
	}
	if err := m.Snapshot(); err != nil {
		return nil, err
	}
	return m, nil
}

// Snapshot encodes the surface and pushes it.
func (m *Manager) Snapshot() error {
	var buf bytes.Buffer
	if err := m.encoder.Encode(&buf, m.surface.Image()); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	m.mu.Lock()
	m.stack.Push(Entry(buf.Bytes()))
	m.mu.Unlock()
	m.notify()
	return nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (m *Manager) Undo() (bool, error) {
	m.mu.Lock()
	e, ok := m.stack.Undo()
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	err := m.restore(e)
	m.notify()
	return true, err
}

// Redo restores the next snapshot. It reports false when there is nothing to
// redo.
func (m *Manager) Redo() (bool, error) {
	m.mu.Lock()
	e, ok := m.stack.Redo()
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	err := m.restore(e)
	m.notify()
	return true, err
}

// Rerender paints the snapshot under the cursor into the surface at its
// current size. It is called after a resize and never changes the stack.
func (m *Manager) Rerender() error {
	m.mu.Lock()
	e, ok := m.stack.Current()
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.restore(e)
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack.CanUndo()
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack.CanRedo()
}

// Len and Index expose the stack shape for status output and tests.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack.Len()
}

func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack.Index()
}

// restore decodes e into a fresh raster sized like the surface and swaps it
// in with a single Replace so no partial paint is visible.
func (m *Manager) restore(e Entry) error {
	src, err := png.Decode(bytes.NewReader(e))
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	b := m.surface.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	m.surface.Replace(dst)
	return nil
}

func (m *Manager) notify() {
	if m.onChange == nil {
		return
	}
	m.onChange(m.CanUndo(), m.CanRedo())
}
