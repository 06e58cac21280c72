package validate

import "github.com/mgpai22/cueline/internal/timeline"

// AutoFixOverlaps returns a repaired copy of segs. Each overlapping pair is
// met at the midpoint of the overlap. If the midpoint would leave either side
// empty, the previous segment is cut at the current start instead, or, when
// both share a start, the longer one is moved to begin where the shorter one
// ends. Moving a start can reorder the collection, so passes repeat over the
// re-sorted result until one changes nothing.
func AutoFixOverlaps(segs []timeline.Segment, tol float64) []timeline.Segment {
	out := timeline.Clone(segs)
	timeline.Sort(out)

	// starts only grow and ends only shrink, so this settles well within
	// the bound
	for pass := 0; pass <= len(out); pass++ {
		if !fixPass(out, tol) {
			break
		}
		timeline.Sort(out)
	}
	return out
}

// fixPass repairs adjacent overlapping pairs of the sorted slice in place and
// reports whether anything moved.
func fixPass(out []timeline.Segment, tol float64) bool {
	changed := false
	for i := 1; i < len(out); i++ {
		prev, curr := &out[i-1], &out[i]
		if !Overlaps(*prev, *curr, tol) {
			continue
		}
		mid := (prev.End + curr.Start) / 2
		switch {
		case mid > prev.Start && mid < curr.End:
			prev.End = mid
			curr.Start = mid
		case curr.Start > prev.Start:
			prev.End = curr.Start
		case curr.Start == prev.Start && curr.End < prev.End:
			prev.Start = curr.End
		default:
			continue
		}
		changed = true
	}
	return changed
}
