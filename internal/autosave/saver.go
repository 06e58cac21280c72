package autosave

import (
	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
)

// Saver writes a snapshot whenever a published frame carries a collection
// that differs from the last one saved. Frames published mid-drag are
// skipped; the frame after the drag ends is saved.
type Saver struct {
	store    *Store
	document string
	logger   *logging.Logger
	last     []timeline.Segment
	saved    int
}

// NewSaver creates a saver writing snapshots of document into store. A nil
// logger discards output.
func NewSaver(store *Store, document string, logger *logging.Logger) *Saver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Saver{store: store, document: document, logger: logger}
}

// Prime records segs as already saved, typically the collection just loaded.
func (s *Saver) Prime(segs []timeline.Segment) {
	s.last = timeline.Clone(segs)
}

// Observe is meant to be passed to Bridge.Subscribe.
func (s *Saver) Observe(f editor.Frame) {
	if f.Dragging || (s.last != nil && timeline.Equal(s.last, f.Segments)) {
		return
	}
	version, err := s.store.Save(s.document, f.Segments)
	if err != nil {
		s.logger.Warnw("Autosave failed", "document", s.document, "error", err)
		return
	}
	s.last = timeline.Clone(f.Segments)
	s.saved++
	s.logger.Debugw("Autosaved", "document", s.document, "version", version, "segments", len(f.Segments))
}

// Saved reports how many snapshots this saver wrote.
func (s *Saver) Saved() int {
	return s.saved
}
