// Package history keeps a bounded undo/redo stack of encoded surface
// snapshots.
package history

// Limit is the maximum number of entries a Stack retains.
const Limit = 50

// Entry is an encoded raster of the whole surface. It is never modified
// after it has been pushed.
type Entry []byte

// Stack is an ordered sequence of entries with a cursor. Entries after the
// cursor are the redo branch.
type Stack struct {
	entries []Entry
	index   int
	limit   int
}

// NewStack returns an empty stack holding at most limit entries. A limit
// below one falls back to Limit.
func NewStack(limit int) *Stack {
	if limit < 1 {
		limit = Limit
	}
	return &Stack{limit: limit, index: -1}
}

// Push drops the redo branch, appends e and evicts the oldest entry when the
// stack is over its limit. The cursor ends on e.
func (s *Stack) Push(e Entry) {
	s.entries = append(s.entries[:s.index+1], e)
	if len(s.entries) > s.limit {
		drop := len(s.entries) - s.limit
		s.entries = append(s.entries[:0:0], s.entries[drop:]...)
	}
	s.index = len(s.entries) - 1
}

func (s *Stack) CanUndo() bool { return s.index > 0 }

func (s *Stack) CanRedo() bool { return s.index >= 0 && s.index < len(s.entries)-1 }

// Undo moves the cursor back one entry and returns it. It reports false and
// leaves the cursor alone when there is nothing to undo.
func (s *Stack) Undo() (Entry, bool) {
	if !s.CanUndo() {
		return nil, false
	}
	s.index--
	return s.entries[s.index], true
}

// Redo moves the cursor forward one entry and returns it.
func (s *Stack) Redo() (Entry, bool) {
	if !s.CanRedo() {
		return nil, false
	}
	s.index++
	return s.entries[s.index], true
}

// Current returns the entry under the cursor.
func (s *Stack) Current() (Entry, bool) {
	if s.index < 0 {
		return nil, false
	}
	return s.entries[s.index], true
}

func (s *Stack) Len() int { return len(s.entries) }

// Index returns the cursor position, or -1 for an empty stack.
func (s *Stack) Index() int { return s.index }
