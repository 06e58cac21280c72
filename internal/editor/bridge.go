package editor

import (
	"errors"

	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
	"github.com/mgpai22/cueline/internal/validate"
)

// maxPublishRounds bounds the follow-up rounds a subscriber can trigger by
// publishing from inside its callback.
const maxPublishRounds = 4

// Region is the waveform view of one segment.
type Region struct {
	ID       string  `json:"id"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Selected bool    `json:"selected"`
	Active   bool    `json:"active"`
	Playing  bool    `json:"playing"`
	Invalid  bool    `json:"invalid"`
}

// Frame is everything a view needs to render, derived from the store.
type Frame struct {
	Version   int                `json:"version"`
	Segments  []timeline.Segment `json:"segments"`
	Selection timeline.Selection `json:"selection"`
	Issues    []validate.Issue   `json:"issues"`
	Regions   []Region           `json:"regions"`
	Playhead  float64            `json:"playhead"`
	PlayingID string             `json:"playingId,omitempty"`
	// ScrollTo names the row to bring into view. It is set only on the
	// frame where the playing segment changed.
	ScrollTo string `json:"scrollTo,omitempty"`
	CanUndo  bool   `json:"canUndo"`
	CanRedo  bool   `json:"canRedo"`
	Dragging bool   `json:"dragging"`
}

type subscriber struct {
	id int
	fn func(Frame)
}

type dragState struct {
	gesture *timeline.Gesture
	order   []string
}

// Bridge republishes view state after every change. Views never write to it
// directly; they go through the Controller or the drag methods.
type Bridge struct {
	store      *timeline.Store
	history    *timeline.History
	controller *Controller
	opts       validate.Options
	logger     *logging.Logger

	subs   []subscriber
	nextID int

	publishing bool
	pending    bool
	version    int
	current    Frame

	playhead   float64
	playingID  string
	followed   string
	scrollTo   string
	autoScroll bool
	editing    bool

	drag *dragState
}

// NewBridge creates a bridge over the given store.
func NewBridge(
	store *timeline.Store,
	history *timeline.History,
	controller *Controller,
	opts Options,
	logger *logging.Logger,
) *Bridge {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bridge{
		store:      store,
		history:    history,
		controller: controller,
		opts: validate.Options{
			Tolerance:     opts.Tolerance,
			MaxLineLength: opts.MaxLineLength,
		},
		logger:     logger,
		autoScroll: opts.AutoScroll,
	}
}

// Subscribe registers fn for every published frame and returns a function
// removing it again.
func (b *Bridge) Subscribe(fn func(Frame)) func() {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Current returns the most recently published frame.
func (b *Bridge) Current() Frame {
	return b.current
}

// Publish derives a new frame from the store and hands it to every
// subscriber. A Publish issued from inside a subscriber is folded into one
// follow-up round, which is skipped when nothing changed. Rounds past
// maxPublishRounds are dropped; the next Publish picks up the state.
func (b *Bridge) Publish() {
	if b.publishing {
		b.pending = true
		return
	}
	b.publishing = true
	defer func() { b.publishing = false }()

	b.deliver(b.build())
	for round := 1; b.pending && round < maxPublishRounds; round++ {
		b.pending = false
		next := b.build()
		if sameState(b.current, next) {
			b.version--
			break
		}
		b.deliver(next)
	}
	if b.pending {
		b.logger.Debugw("Dropped publish round",
			"rounds", maxPublishRounds,
			"version", b.current.Version,
		)
	}
	b.pending = false
}

func (b *Bridge) deliver(f Frame) {
	b.current = f
	b.scrollTo = ""
	subs := append([]subscriber(nil), b.subs...)
	for _, s := range subs {
		s.fn(f)
	}
}

func (b *Bridge) build() Frame {
	b.version++
	segs := b.store.Segments()
	sel := b.store.Selection()
	issues := validate.ValidateAll(segs, b.opts)
	b.playingID = b.playingAt(b.playhead)

	return Frame{
		Version:   b.version,
		Segments:  segs,
		Selection: sel,
		Issues:    issues,
		Regions:   b.regions(segs, sel, issues),
		Playhead:  b.playhead,
		PlayingID: b.playingID,
		ScrollTo:  b.scrollTo,
		CanUndo:   b.history.CanUndo(),
		CanRedo:   b.history.CanRedo(),
		Dragging:  b.Dragging(),
	}
}

// regions rebuilds the whole region list. While dragging the order captured
// at drag start is kept so the dragged region does not jump.
func (b *Bridge) regions(segs []timeline.Segment, sel timeline.Selection, issues []validate.Issue) []Region {
	invalid := make(map[string]bool)
	for _, is := range issues {
		if is.Severity == validate.SeverityError {
			invalid[is.SegmentID] = true
		}
	}
	selected := make(map[string]bool, len(sel.IDs))
	for _, id := range sel.IDs {
		selected[id] = true
	}

	byID := make(map[string]timeline.Segment, len(segs))
	order := make([]string, 0, len(segs))
	for _, s := range segs {
		byID[s.ID] = s
		order = append(order, s.ID)
	}
	if b.Dragging() {
		order = b.dragOrder(byID)
	}

	regions := make([]Region, 0, len(order))
	for _, id := range order {
		s := byID[id]
		regions = append(regions, Region{
			ID:       s.ID,
			Start:    s.Start,
			End:      s.End,
			Selected: selected[s.ID],
			Active:   s.ID == sel.ActiveID,
			Playing:  s.ID == b.playingID,
			Invalid:  invalid[s.ID],
		})
	}
	return regions
}

func (b *Bridge) dragOrder(byID map[string]timeline.Segment) []string {
	order := make([]string, 0, len(byID))
	seen := make(map[string]bool, len(byID))
	for _, id := range b.drag.order {
		if _, ok := byID[id]; ok {
			order = append(order, id)
			seen[id] = true
		}
	}
	for _, s := range b.store.Segments() {
		if !seen[s.ID] {
			order = append(order, s.ID)
		}
	}
	return order
}

func sameState(a, b Frame) bool {
	return timeline.Equal(a.Segments, b.Segments) &&
		sameSelection(a.Selection, b.Selection) &&
		a.Playhead == b.Playhead &&
		a.PlayingID == b.PlayingID &&
		a.CanUndo == b.CanUndo &&
		a.CanRedo == b.CanRedo &&
		a.Dragging == b.Dragging &&
		b.ScrollTo == ""
}

func sameSelection(a, b timeline.Selection) bool {
	if a.ActiveID != b.ActiveID || len(a.IDs) != len(b.IDs) {
		return false
	}
	for i := range a.IDs {
		if a.IDs[i] != b.IDs[i] {
			return false
		}
	}
	return true
}

// Tick moves the play-head. When the playing segment changes and auto-scroll
// is on, the next frame asks views to scroll to it, unless text is being
// edited.
func (b *Bridge) Tick(t float64) {
	b.playhead = t
	if b.controller != nil {
		b.controller.SetPlayhead(t)
	}
	playing := b.playingAt(t)
	if playing != b.followed {
		b.followed = playing
		if playing != "" && b.autoScroll && !b.editing {
			b.scrollTo = playing
		}
	}
	b.Publish()
}

// playingAt is the id of the segment under t in the store, if any.
func (b *Bridge) playingAt(t float64) string {
	if seg, ok := b.store.ActiveAt(t); ok {
		return seg.ID
	}
	return ""
}

// Playhead returns the last ticked time.
func (b *Bridge) Playhead() float64 {
	return b.playhead
}

// SetAutoScroll toggles following the playing segment.
func (b *Bridge) SetAutoScroll(on bool) {
	b.autoScroll = on
}

// AutoScroll reports whether auto-scroll is on.
func (b *Bridge) AutoScroll() bool {
	return b.autoScroll
}

// SetEditing marks in-place text editing, which suppresses auto-scroll.
func (b *Bridge) SetEditing(on bool) {
	b.editing = on
}

// Dragging reports whether a drag gesture is open.
func (b *Bridge) Dragging() bool {
	return b.drag != nil && b.drag.gesture.Open()
}

// DragStart opens a drag gesture on id.
func (b *Bridge) DragStart(id string) error {
	if b.Dragging() {
		return timeline.ErrGestureActive
	}
	if b.store.IndexOf(id) < 0 {
		return &timeline.UnknownIDError{ID: id}
	}
	g, err := b.history.BeginGesture()
	if err != nil {
		return err
	}
	segs := b.store.Segments()
	order := make([]string, len(segs))
	for i, s := range segs {
		order[i] = s.ID
	}
	b.drag = &dragState{gesture: g, order: order}
	b.Publish()
	return nil
}

// DragMove forwards a continuous drag update. Times are snapped to 10ms.
func (b *Bridge) DragMove(id string, start, end float64) error {
	if b.drag == nil {
		return ErrNotDragging
	}
	err := b.drag.gesture.Update(id, timeline.At(timeline.RoundTime(start), timeline.RoundTime(end)))
	if errors.Is(err, timeline.ErrGestureClosed) {
		b.drag = nil
		b.Publish()
		return ErrNotDragging
	}
	if err != nil {
		return err
	}
	b.Publish()
	return nil
}

// DragEnd closes the drag. It reports whether the drag changed anything,
// i.e. whether it left an undo step.
func (b *Bridge) DragEnd() bool {
	if b.drag == nil {
		return false
	}
	changed := b.drag.gesture.End()
	b.drag = nil
	b.Publish()
	return changed
}
