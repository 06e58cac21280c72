package tui

import (
	"time"

	"github.com/mgpai22/cueline/internal/timeline"
)

// tickMsg advances the play-head while playing.
type tickMsg time.Time

// SavedMsg reports the result of a write started with "w".
type SavedMsg struct {
	Segments []timeline.Segment
	Err      error
}

// clearStatusMsg drops a transient status line.
type clearStatusMsg struct {
	seq int
}
