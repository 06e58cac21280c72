package timeline

import (
	"math"
	"strings"
)

// SplitPolicy decides how a segment's text is divided by Split.
type SplitPolicy int

const (
	// SplitProportional hands each half a share of the words matching its
	// share of the duration.
	SplitProportional SplitPolicy = iota
	// SplitDuplicate copies the full text into both halves.
	SplitDuplicate
	// SplitEmptySecond keeps the text on the first half only.
	SplitEmptySecond
)

// ParseSplitPolicy maps a config name onto a policy.
func ParseSplitPolicy(name string) (SplitPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "proportional", "words":
		return SplitProportional, true
	case "duplicate", "copy":
		return SplitDuplicate, true
	case "empty", "empty-second", "first":
		return SplitEmptySecond, true
	default:
		return SplitProportional, false
	}
}

func (p SplitPolicy) String() string {
	switch p {
	case SplitDuplicate:
		return "duplicate"
	case SplitEmptySecond:
		return "empty-second"
	default:
		return "proportional"
	}
}

// Selection is a read-only view of the selection state.
type Selection struct {
	ActiveID string   `json:"activeId,omitempty"`
	IDs      []string `json:"ids"`
}

// Contains reports whether id is selected.
func (s Selection) Contains(id string) bool {
	for _, sel := range s.IDs {
		if sel == id {
			return true
		}
	}
	return false
}

// Store owns the sorted segment collection and the selection. It is not safe
// for concurrent use.
type Store struct {
	segments []Segment
	active   string
	selected map[string]struct{}
}

// NewStore builds a store from segs. The input is validated like Replace.
func NewStore(segs []Segment) (*Store, error) {
	s := &Store{selected: make(map[string]struct{})}
	if err := s.Replace(segs); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the number of segments.
func (s *Store) Len() int {
	return len(s.segments)
}

// Segments returns a copy of the collection in sorted order.
func (s *Store) Segments() []Segment {
	out := Clone(s.segments)
	if out == nil {
		out = []Segment{}
	}
	return out
}

// IndexOf returns the position of id, or -1.
func (s *Store) IndexOf(id string) int {
	for i := range s.segments {
		if s.segments[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the segment with id.
func (s *Store) Get(id string) (Segment, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return Segment{}, false
	}
	return s.segments[i], true
}

// ActiveAt returns the segment playing at t. When several contain t the one
// starting last wins.
func (s *Store) ActiveAt(t float64) (Segment, bool) {
	found := -1
	for i := range s.segments {
		if s.segments[i].Start > t {
			break
		}
		if s.segments[i].Contains(t) {
			found = i
		}
	}
	if found < 0 {
		return Segment{}, false
	}
	return s.segments[found], true
}

// Insert adds seg, assigning a fresh id when seg.ID is empty.
func (s *Store) Insert(seg Segment) (Segment, error) {
	if seg.ID == "" {
		seg.ID = NewID()
	}
	if !validTiming(seg.Start, seg.End) {
		return Segment{}, &InvalidTimingError{ID: seg.ID, Start: seg.Start, End: seg.End}
	}
	if s.IndexOf(seg.ID) >= 0 {
		return Segment{}, &DuplicateIDError{ID: seg.ID}
	}
	s.segments = append(s.segments, seg)
	Sort(s.segments)
	return seg, nil
}

// InsertMany adds a batch of segments. Either every segment is inserted or
// none is.
func (s *Store) InsertMany(segs []Segment) ([]Segment, error) {
	batch := Clone(segs)
	seen := make(map[string]struct{}, len(batch))
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = NewID()
		}
		seg := batch[i]
		if !validTiming(seg.Start, seg.End) {
			return nil, &InvalidTimingError{ID: seg.ID, Start: seg.Start, End: seg.End}
		}
		if _, dup := seen[seg.ID]; dup || s.IndexOf(seg.ID) >= 0 {
			return nil, &DuplicateIDError{ID: seg.ID}
		}
		seen[seg.ID] = struct{}{}
	}
	s.segments = append(s.segments, batch...)
	Sort(s.segments)
	return batch, nil
}

// UpdateText replaces the text of id.
func (s *Store) UpdateText(id, text string) error {
	i := s.IndexOf(id)
	if i < 0 {
		return &UnknownIDError{ID: id}
	}
	s.segments[i].Text = text
	return nil
}

// UpdateTiming applies patch to id and keeps the collection sorted.
func (s *Store) UpdateTiming(id string, patch TimingPatch) error {
	i := s.IndexOf(id)
	if i < 0 {
		return &UnknownIDError{ID: id}
	}
	start, end := s.segments[i].Start, s.segments[i].End
	if patch.Start != nil {
		start = *patch.Start
	}
	if patch.End != nil {
		end = *patch.End
	}
	if !validTiming(start, end) {
		return &InvalidTimingError{ID: id, Start: start, End: end}
	}
	moved := start != s.segments[i].Start
	s.segments[i].Start = start
	s.segments[i].End = end
	if moved {
		Sort(s.segments)
	}
	return nil
}

// Delete removes every known id and returns how many were removed. Unknown
// ids are ignored.
func (s *Store) Delete(ids ...string) int {
	if len(ids) == 0 || len(s.segments) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.segments[:0]
	removed := 0
	for _, seg := range s.segments {
		if _, ok := drop[seg.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, seg)
	}
	s.segments = kept
	if removed > 0 {
		s.pruneSelection()
	}
	return removed
}

// Split cuts id at `at`. The first half keeps the id; the second half gets a
// fresh one.
func (s *Store) Split(id string, at float64, policy SplitPolicy) (Segment, Segment, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return Segment{}, Segment{}, &UnknownIDError{ID: id}
	}
	orig := s.segments[i]
	if !(at > orig.Start && at < orig.End) {
		return Segment{}, Segment{}, &InvalidSplitPointError{
			ID: id, At: at, Start: orig.Start, End: orig.End,
		}
	}

	firstText, secondText := splitText(orig.Text, (at-orig.Start)/orig.Duration(), policy)
	first := Segment{ID: orig.ID, Start: orig.Start, End: at, Text: firstText}
	second := Segment{ID: NewID(), Start: at, End: orig.End, Text: secondText}

	s.segments[i] = first
	s.segments = append(s.segments, second)
	Sort(s.segments)
	return first, second, nil
}

func splitText(text string, ratio float64, policy SplitPolicy) (string, string) {
	switch policy {
	case SplitDuplicate:
		return text, text
	case SplitEmptySecond:
		return text, ""
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text, ""
	}
	n := int(math.Round(float64(len(words)) * ratio))
	if n < 1 {
		n = 1
	}
	if n > len(words)-1 {
		n = len(words) - 1
	}
	return strings.Join(words[:n], " "), strings.Join(words[n:], " ")
}

// Merge replaces a contiguous run of segments with one new segment covering
// all of them. The merged segment becomes the only selection.
func (s *Store) Merge(ids []string) (Segment, error) {
	indices := make([]int, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i := s.IndexOf(id)
		if i < 0 {
			return Segment{}, &UnknownIDError{ID: id}
		}
		indices = append(indices, i)
	}
	if !contiguous(indices) {
		return Segment{}, &NonContiguousMergeError{IDs: append([]string(nil), ids...)}
	}

	lo, hi := minMax(indices)
	merged := Segment{
		ID:    NewID(),
		Start: s.segments[lo].Start,
		End:   s.segments[lo].End,
	}
	texts := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		seg := s.segments[i]
		merged.Start = math.Min(merged.Start, seg.Start)
		merged.End = math.Max(merged.End, seg.End)
		texts = append(texts, seg.Text)
	}
	merged.Text = strings.Join(texts, "\n")

	rest := make([]Segment, 0, len(s.segments)-(hi-lo))
	rest = append(rest, s.segments[:lo]...)
	rest = append(rest, merged)
	rest = append(rest, s.segments[hi+1:]...)
	s.segments = rest
	Sort(s.segments)

	s.selected = map[string]struct{}{merged.ID: {}}
	s.active = merged.ID
	return merged, nil
}

// Contiguous reports whether ids map to an unbroken run of positions in segs.
// Fewer than two ids never count as contiguous.
func Contiguous(ids []string, segs []Segment) bool {
	pos := make(map[string]int, len(segs))
	for i := range segs {
		pos[segs[i].ID] = i
	}
	indices := make([]int, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i, ok := pos[id]
		if !ok {
			return false
		}
		indices = append(indices, i)
	}
	return contiguous(indices)
}

func contiguous(indices []int) bool {
	if len(indices) < 2 {
		return false
	}
	lo, hi := minMax(indices)
	return hi-lo+1 == len(indices)
}

func minMax(xs []int) (int, int) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// Select updates the selection. multi toggles id, rng selects the positional
// span from the current anchor to id, and neither selects only id.
func (s *Store) Select(id string, multi, rng bool) error {
	target := s.IndexOf(id)
	if target < 0 {
		return &UnknownIDError{ID: id}
	}
	if s.selected == nil {
		s.selected = make(map[string]struct{})
	}

	switch {
	case rng && s.active != "" && s.IndexOf(s.active) >= 0:
		anchor := s.IndexOf(s.active)
		lo, hi := anchor, target
		if lo > hi {
			lo, hi = hi, lo
		}
		s.selected = make(map[string]struct{}, hi-lo+1)
		for i := lo; i <= hi; i++ {
			s.selected[s.segments[i].ID] = struct{}{}
		}
		s.active = id

	case multi:
		if _, ok := s.selected[id]; ok {
			delete(s.selected, id)
			if s.active == id {
				s.active = s.lastSelected()
			}
			return nil
		}
		s.selected[id] = struct{}{}
		s.active = id

	default:
		s.selected = map[string]struct{}{id: {}}
		s.active = id
	}
	return nil
}

// Selection returns the selected ids in collection order.
func (s *Store) Selection() Selection {
	sel := Selection{ActiveID: s.active, IDs: []string{}}
	for _, seg := range s.segments {
		if _, ok := s.selected[seg.ID]; ok {
			sel.IDs = append(sel.IDs, seg.ID)
		}
	}
	return sel
}

// ClearSelection drops every selected id.
func (s *Store) ClearSelection() {
	s.selected = make(map[string]struct{})
	s.active = ""
}

// Replace swaps in a whole new collection, as on file load. The selection is
// cleared.
func (s *Store) Replace(segs []Segment) error {
	next := Clone(segs)
	seen := make(map[string]struct{}, len(next))
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = NewID()
		}
		seg := next[i]
		if !validTiming(seg.Start, seg.End) {
			return &InvalidTimingError{ID: seg.ID, Start: seg.Start, End: seg.End}
		}
		if _, dup := seen[seg.ID]; dup {
			return &DuplicateIDError{ID: seg.ID}
		}
		seen[seg.ID] = struct{}{}
	}
	Sort(next)
	s.segments = next
	s.ClearSelection()
	return nil
}

// Restore puts back a collection captured earlier by Segments. Selected ids
// that no longer exist are dropped.
func (s *Store) Restore(segs []Segment) {
	s.segments = Clone(segs)
	s.pruneSelection()
}

func (s *Store) pruneSelection() {
	if s.selected == nil {
		s.selected = make(map[string]struct{})
	}
	present := make(map[string]struct{}, len(s.segments))
	for _, seg := range s.segments {
		present[seg.ID] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}
	if _, ok := s.selected[s.active]; !ok {
		s.active = s.lastSelected()
	}
}

func (s *Store) lastSelected() string {
	last := ""
	for _, seg := range s.segments {
		if _, ok := s.selected[seg.ID]; ok {
			last = seg.ID
		}
	}
	return last
}
