package timeline

// DefaultHistoryLimit caps the undo stack when no limit is configured.
const DefaultHistoryLimit = 200

// History is a snapshot based undo/redo stack over a Store. Each entry is a
// full copy of the collection taken before a discrete edit.
type History struct {
	store   *Store
	past    [][]Segment
	future  [][]Segment
	limit   int
	gesture *Gesture
}

// NewHistory creates a history for store. limit <= 0 means unbounded.
func NewHistory(store *Store, limit int) *History {
	return &History{store: store, limit: limit}
}

// CanUndo reports whether Undo would change anything.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would change anything.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the sizes of the past and future stacks.
func (h *History) Depth() (int, int) { return len(h.past), len(h.future) }

// Clear drops both stacks, e.g. after loading a new file.
func (h *History) Clear() {
	h.endGesture()
	h.past = nil
	h.future = nil
}

// Snapshot records the current collection before a discrete edit and clears
// the redo stack. An open gesture is ended first.
func (h *History) Snapshot() {
	h.endGesture()
	h.push()
}

func (h *History) push() {
	h.past = append(h.past, h.store.Segments())
	h.future = nil
	if h.limit > 0 && len(h.past) > h.limit {
		drop := len(h.past) - h.limit
		h.past = append([][]Segment(nil), h.past[drop:]...)
	}
}

// Do takes one snapshot and runs fn. When fn fails the collection is rolled
// back and the history looks as if Do was never called.
func (h *History) Do(fn func() error) error {
	h.endGesture()
	past, future := h.past, h.future
	before := h.store.Segments()
	h.push()
	if err := fn(); err != nil {
		h.store.Restore(before)
		h.past, h.future = past, future
		return err
	}
	return nil
}

// Undo restores the state before the most recent edit. It returns false
// when there is nothing to undo.
func (h *History) Undo() bool {
	h.endGesture()
	if len(h.past) == 0 {
		return false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, h.store.Segments())
	h.store.Restore(prev)
	return true
}

// Redo re-applies the most recently undone edit.
func (h *History) Redo() bool {
	h.endGesture()
	if len(h.future) == 0 {
		return false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, h.store.Segments())
	h.store.Restore(next)
	return true
}

// Gesture brackets a run of continuous timing updates so they collapse into
// a single undo step.
type Gesture struct {
	h      *History
	before []Segment
	past   [][]Segment
	future [][]Segment
	closed bool
}

// BeginGesture snapshots once and returns the open gesture.
func (h *History) BeginGesture() (*Gesture, error) {
	if h.gesture != nil {
		return nil, ErrGestureActive
	}
	g := &Gesture{
		h:      h,
		before: h.store.Segments(),
		past:   h.past,
		future: h.future,
	}
	h.push()
	h.gesture = g
	return g, nil
}

// Active reports whether a gesture is open.
func (h *History) Active() bool { return h.gesture != nil }

func (h *History) endGesture() {
	if h.gesture != nil {
		h.gesture.End()
	}
}

// Update applies a timing patch without taking a snapshot.
func (g *Gesture) Update(id string, patch TimingPatch) error {
	if g.closed {
		return ErrGestureClosed
	}
	return g.h.store.UpdateTiming(id, patch)
}

// Open reports whether the gesture still accepts updates.
func (g *Gesture) Open() bool { return !g.closed }

// End closes the gesture. When nothing moved, the snapshot taken at the start
// is discarded and End returns false.
func (g *Gesture) End() bool {
	if g.closed {
		return false
	}
	g.closed = true
	if g.h.gesture == g {
		g.h.gesture = nil
	}
	if Equal(g.before, g.h.store.segments) {
		g.h.past, g.h.future = g.past, g.future
		return false
	}
	return true
}
