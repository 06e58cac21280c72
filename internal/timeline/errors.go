package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below, for use with errors.Is.
var (
	ErrDuplicateID       = errors.New("duplicate segment id")
	ErrUnknownID         = errors.New("unknown segment id")
	ErrInvalidSplitPoint = errors.New("invalid split point")
	ErrNonContiguous     = errors.New("selection is not contiguous")
	ErrInvalidTiming     = errors.New("invalid segment timing")
	ErrGestureActive     = errors.New("a gesture is already in progress")
	ErrGestureClosed     = errors.New("gesture already ended")
)

// DuplicateIDError is returned when inserting an id that already exists.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate segment id %q", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// UnknownIDError is returned by single-target edits on a missing id.
type UnknownIDError struct {
	ID string
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown segment id %q", e.ID)
}

func (e *UnknownIDError) Is(target error) bool { return target == ErrUnknownID }

// InvalidSplitPointError is returned when the split time is not strictly
// inside the segment.
type InvalidSplitPointError struct {
	ID    string
	At    float64
	Start float64
	End   float64
}

func (e *InvalidSplitPointError) Error() string {
	return fmt.Sprintf(
		"split point %.3f is outside segment %q (%.3f-%.3f)",
		e.At, e.ID, e.Start, e.End,
	)
}

func (e *InvalidSplitPointError) Is(target error) bool { return target == ErrInvalidSplitPoint }

// NonContiguousMergeError is returned when merge targets do not form an
// unbroken run in collection order.
type NonContiguousMergeError struct {
	IDs []string
}

func (e *NonContiguousMergeError) Error() string {
	if len(e.IDs) < 2 {
		return "merge needs at least two adjacent segments"
	}
	return fmt.Sprintf(
		"segments [%s] are not adjacent",
		strings.Join(e.IDs, ", "),
	)
}

func (e *NonContiguousMergeError) Is(target error) bool { return target == ErrNonContiguous }

// InvalidTimingError is returned when a segment would end up with
// end <= start or a negative start.
type InvalidTimingError struct {
	ID    string
	Start float64
	End   float64
}

func (e *InvalidTimingError) Error() string {
	return fmt.Sprintf(
		"invalid timing for segment %q: start %.3f, end %.3f",
		e.ID, e.Start, e.End,
	)
}

func (e *InvalidTimingError) Is(target error) bool { return target == ErrInvalidTiming }
