// Package timeline holds the in-memory subtitle segment model: the sorted
// segment collection with its selection, and the snapshot history layered
// over it.
package timeline

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// Tolerance is the slack, in seconds, allowed before two adjacent segments
// count as overlapping.
const Tolerance = 0.05

// Segment is a single timed text unit. Start and End are in seconds.
type Segment struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether t falls inside [Start, End).
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// TimingPatch carries optional replacement timing fields.
type TimingPatch struct {
	Start *float64
	End   *float64
}

// At returns a patch setting both fields.
func At(start, end float64) TimingPatch {
	return TimingPatch{Start: &start, End: &end}
}

// NewID returns a fresh opaque segment id.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of segs. Segments hold no pointers, so a slice
// copy is enough.
func Clone(segs []Segment) []Segment {
	if segs == nil {
		return nil
	}
	out := make([]Segment, len(segs))
	copy(out, segs)
	return out
}

// Sort orders segs by Start, keeping the relative order of equal starts.
func Sort(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Start < segs[j].Start
	})
}

// Equal reports whether a and b hold the same segments in the same order.
func Equal(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SameContent is Equal ignoring ids. Each load of a file mints fresh ids.
func SameContent(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}

// RoundTime snaps t to the 10ms grid the editor works at.
func RoundTime(t float64) float64 {
	return math.Round(t*100) / 100
}

func validTiming(start, end float64) bool {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return false
	}
	return start >= 0 && end > start
}
