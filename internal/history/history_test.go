package history

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/example/scribblelens/internal/canvas"
)

func entry(i int) Entry { return Entry{byte(i)} }

func TestPushEvictsOldest(t *testing.T) {
	s := NewStack(Limit)
	for i := 0; i <= Limit; i++ {
		s.Push(entry(i))
	}
	if s.Len() != Limit {
		t.Fatalf("Len = %d, want %d", s.Len(), Limit)
	}
	if s.Index() != Limit-1 {
		t.Fatalf("Index = %d, want %d", s.Index(), Limit-1)
	}
	e, ok := s.Undo()
	if !ok || e[0] != byte(Limit-1) {
		t.Fatalf("Undo after eviction = %v %v, want entry %d", e, ok, Limit-1)
	}
	for s.CanUndo() {
		e, _ = s.Undo()
	}
	if e[0] != 1 {
		t.Fatalf("oldest reachable entry = %d, want 1", e[0])
	}
}

func TestPushTruncatesRedoBranch(t *testing.T) {
	s := NewStack(Limit)
	s.Push(entry(0))
	s.Push(entry(1))
	s.Push(entry(2))
	s.Undo()
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("expected redo to be available")
	}
	s.Push(entry(9))
	if s.CanRedo() {
		t.Fatal("push must drop the redo branch")
	}
	if _, ok := s.Redo(); ok {
		t.Fatal("Redo should be a no-op")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if e, _ := s.Current(); e[0] != 9 {
		t.Fatalf("Current = %v", e)
	}
}

func TestEmptyStack(t *testing.T) {
	s := NewStack(0)
	if s.CanUndo() || s.CanRedo() {
		t.Fatal("empty stack reports undo/redo")
	}
	if _, ok := s.Current(); ok {
		t.Fatal("empty stack has no current entry")
	}
	s.Push(entry(1))
	if s.CanUndo() {
		t.Fatal("single entry cannot be undone")
	}
}

func drawStroke(e *canvas.Engine, y int) {
	e.Begin(image.Pt(2, y))
	e.Extend(image.Pt(28, y))
	e.End()
}

func TestUndoRedoAllStrokes(t *testing.T) {
	surface := canvas.NewSurface(30, 30)
	m, err := New(surface)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blank := surface.Clone()
	var snapErr error
	e := canvas.NewEngine(surface, canvas.NewTools(), func() { snapErr = m.Snapshot() })

	const strokes = 5
	for i := 0; i < strokes; i++ {
		drawStroke(e, 3+i*5)
		if snapErr != nil {
			t.Fatalf("Snapshot: %v", snapErr)
		}
	}
	final := surface.Clone()

	for i := 0; i < strokes; i++ {
		if ok, err := m.Undo(); !ok || err != nil {
			t.Fatalf("Undo %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := m.Undo(); ok {
		t.Fatal("undo past the initial snapshot")
	}
	if !bytes.Equal(surface.Image().Pix, blank.Pix) {
		t.Fatal("surface is not blank after undoing every stroke")
	}
	for i := 0; i < strokes; i++ {
		if ok, err := m.Redo(); !ok || err != nil {
			t.Fatalf("Redo %d: ok=%v err=%v", i, ok, err)
		}
	}
	if !bytes.Equal(surface.Image().Pix, final.Pix) {
		t.Fatal("redo did not restore the final state")
	}
}

func TestStrokeAfterUndoDropsRedo(t *testing.T) {
	surface := canvas.NewSurface(30, 30)
	var changes [][2]bool
	m, err := New(surface, WithOnChange(func(u, r bool) { changes = append(changes, [2]bool{u, r}) }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e := canvas.NewEngine(surface, canvas.NewTools(), func() { _ = m.Snapshot() })
	drawStroke(e, 5)
	drawStroke(e, 10)
	m.Undo()
	drawStroke(e, 20)
	if m.CanRedo() {
		t.Fatal("redo should be gone after a new stroke")
	}
	if ok, _ := m.Redo(); ok {
		t.Fatal("Redo should be a no-op")
	}
	last := changes[len(changes)-1]
	if !last[0] || last[1] {
		t.Fatalf("last change = %v, want undo only", last)
	}
}

func TestRerenderKeepsCursor(t *testing.T) {
	surface := canvas.NewSurface(20, 20)
	m, err := New(surface)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	surface.Image().Set(3, 3, color.RGBA{B: 255, A: 255})
	if err := m.Snapshot(); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	index, length := m.Index(), m.Len()

	surface.Resize(40, 10)
	if err := m.Rerender(); err != nil {
		t.Fatalf("Rerender: %v", err)
	}
	if !surface.Bounds().Eq(image.Rect(0, 0, 40, 10)) {
		t.Fatalf("bounds = %v", surface.Bounds())
	}
	if got := surface.Image().RGBAAt(3, 3); got != (color.RGBA{B: 255, A: 255}) {
		t.Fatalf("pixel after rerender = %+v", got)
	}
	if m.Index() != index || m.Len() != length {
		t.Fatalf("history changed: index %d len %d", m.Index(), m.Len())
	}
}
