// Package editor turns input events from the list, the waveform and the
// play-head into store operations, and publishes the derived view state
// after each of them.
package editor

import (
	"errors"
	"fmt"

	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
	"github.com/mgpai22/cueline/internal/validate"
)

var (
	ErrNoActiveSegment = errors.New("no active segment")
	ErrUnmatchedResult = errors.New("result does not match any segment")
	ErrNotDragging     = errors.New("no drag in progress")
)

// Player is the playback boundary. The editor only ever seeks.
type Player interface {
	Seek(t float64)
}

// Modifiers held during a click.
type Modifiers struct {
	Shift bool
	Ctrl  bool
}

// Menu describes the context menu affordances for the current selection.
type Menu struct {
	Targets   []string
	CanMerge  bool
	CanSplit  bool
	CanDelete bool
}

// Controller applies user commands to a store, one history entry per
// discrete command.
type Controller struct {
	store    *timeline.Store
	history  *timeline.History
	player   Player
	policy   timeline.SplitPolicy
	tol      float64
	playhead float64
	logger   *logging.Logger
	onChange func()
}

// NewController wires a controller. player and logger may be nil.
func NewController(
	store *timeline.Store,
	history *timeline.History,
	player Player,
	opts Options,
	logger *logging.Logger,
) *Controller {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Controller{
		store:   store,
		history: history,
		player:  player,
		policy:  opts.SplitPolicy,
		tol:     opts.Tolerance,
		logger:  logger,
	}
}

// OnChange registers fn to run after every command that touched state.
func (c *Controller) OnChange(fn func()) {
	c.onChange = fn
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// SetPlayer replaces the playback target.
func (c *Controller) SetPlayer(p Player) {
	c.player = p
}

// SetPlayhead records the current play-head time.
func (c *Controller) SetPlayhead(t float64) {
	c.playhead = t
}

// Playhead returns the last recorded play-head time.
func (c *Controller) Playhead() float64 {
	return c.playhead
}

func (c *Controller) seek(t float64) {
	if c.player != nil {
		c.player.Seek(t)
	}
}

// IsContiguous reports whether ids form an unbroken run in segs, i.e.
// whether they can be merged.
func IsContiguous(ids []string, segs []timeline.Segment) bool {
	return timeline.Contiguous(ids, segs)
}

// Click handles a click on a row or region. With seek set, a plain click
// also moves the play-head to the segment start.
func (c *Controller) Click(id string, mods Modifiers, seek bool) error {
	var err error
	switch {
	case mods.Shift:
		err = c.store.Select(id, false, true)
	case mods.Ctrl:
		err = c.store.Select(id, true, false)
	default:
		err = c.store.Select(id, false, false)
		if err == nil && seek {
			seg, _ := c.store.Get(id)
			c.seek(seg.Start)
		}
	}
	if err != nil {
		return err
	}
	c.changed()
	return nil
}

// DoubleClick seeks to the segment start and leaves the selection alone.
func (c *Controller) DoubleClick(id string) error {
	seg, ok := c.store.Get(id)
	if !ok {
		return &timeline.UnknownIDError{ID: id}
	}
	c.seek(seg.Start)
	return nil
}

// ContextMenu selects id first when it is not already selected, then
// reports what the menu can offer for the resulting selection.
func (c *Controller) ContextMenu(id string) (Menu, error) {
	if !c.store.Selection().Contains(id) {
		if err := c.store.Select(id, false, false); err != nil {
			return Menu{}, err
		}
		c.changed()
	}
	sel := c.store.Selection()
	m := Menu{
		Targets:   sel.IDs,
		CanMerge:  IsContiguous(sel.IDs, c.store.Segments()),
		CanDelete: len(sel.IDs) > 0,
	}
	if len(sel.IDs) == 1 {
		seg, _ := c.store.Get(sel.IDs[0])
		m.CanSplit = c.playhead > seg.Start && c.playhead < seg.End
	}
	return m, nil
}

// Load replaces the whole collection and forgets history.
func (c *Controller) Load(segs []timeline.Segment) error {
	if err := c.store.Replace(segs); err != nil {
		return fmt.Errorf("failed to load segments: %w", err)
	}
	c.history.Clear()
	c.logger.Debugw("Loaded segments", "count", len(segs))
	c.changed()
	return nil
}

// CommitText stores edited text. Unchanged text records nothing.
func (c *Controller) CommitText(id, text string) error {
	seg, ok := c.store.Get(id)
	if !ok {
		return &timeline.UnknownIDError{ID: id}
	}
	if seg.Text == text {
		return nil
	}
	err := c.history.Do(func() error {
		return c.store.UpdateText(id, text)
	})
	if err != nil {
		return err
	}
	c.logger.Debugw("Committed text", "id", id)
	c.changed()
	return nil
}

// Retime sets both bounds of id, snapped to the 10ms grid.
func (c *Controller) Retime(id string, start, end float64) error {
	start, end = timeline.RoundTime(start), timeline.RoundTime(end)
	seg, ok := c.store.Get(id)
	if !ok {
		return &timeline.UnknownIDError{ID: id}
	}
	if seg.Start == start && seg.End == end {
		return nil
	}
	err := c.history.Do(func() error {
		return c.store.UpdateTiming(id, timeline.At(start, end))
	})
	if err != nil {
		return err
	}
	c.logger.Debugw("Retimed segment", "id", id, "start", start, "end", end)
	c.changed()
	return nil
}

// Delete removes ids as one undo step and returns how many were removed.
// Unknown ids are ignored; if none are known nothing is recorded.
func (c *Controller) Delete(ids ...string) int {
	known := 0
	for _, id := range ids {
		if c.store.IndexOf(id) >= 0 {
			known++
		}
	}
	if known == 0 {
		return 0
	}
	removed := 0
	_ = c.history.Do(func() error {
		removed = c.store.Delete(ids...)
		return nil
	})
	c.logger.Debugw("Deleted segments", "count", removed)
	c.changed()
	return removed
}

// DeleteSelected removes every selected segment.
func (c *Controller) DeleteSelected() int {
	return c.Delete(c.store.Selection().IDs...)
}

// MergeSelected merges the current selection.
func (c *Controller) MergeSelected() (timeline.Segment, error) {
	ids := c.store.Selection().IDs
	var merged timeline.Segment
	err := c.history.Do(func() error {
		var err error
		merged, err = c.store.Merge(ids)
		return err
	})
	if err != nil {
		return timeline.Segment{}, err
	}
	c.logger.Debugw("Merged segments", "ids", ids, "id", merged.ID)
	c.changed()
	return merged, nil
}

// Split cuts id at `at` using the configured text policy.
func (c *Controller) Split(id string, at float64) (timeline.Segment, timeline.Segment, error) {
	var first, second timeline.Segment
	err := c.history.Do(func() error {
		var err error
		first, second, err = c.store.Split(id, at, c.policy)
		return err
	})
	if err != nil {
		return timeline.Segment{}, timeline.Segment{}, err
	}
	c.logger.Debugw("Split segment", "id", id, "at", at, "new", second.ID)
	c.changed()
	return first, second, nil
}

// SplitActive splits the active segment at `at`.
func (c *Controller) SplitActive(at float64) (timeline.Segment, timeline.Segment, error) {
	active := c.store.Selection().ActiveID
	if active == "" {
		return timeline.Segment{}, timeline.Segment{}, ErrNoActiveSegment
	}
	return c.Split(active, at)
}

// AutoFix repairs overlaps as one undo step. It reports whether anything
// changed.
func (c *Controller) AutoFix() bool {
	segs := c.store.Segments()
	fixed := validate.AutoFixOverlaps(segs, c.tol)
	if timeline.Equal(segs, fixed) {
		return false
	}
	_ = c.history.Do(func() error {
		c.store.Restore(fixed)
		return nil
	})
	c.logger.Debugw("Fixed overlaps", "segments", len(fixed))
	c.changed()
	return true
}

// PasteText replaces the active segment's text.
func (c *Controller) PasteText(text string) error {
	active := c.store.Selection().ActiveID
	if active == "" {
		return ErrNoActiveSegment
	}
	return c.CommitText(active, text)
}

// AddSegment inserts a new segment and selects it.
func (c *Controller) AddSegment(start, end float64, text string) (timeline.Segment, error) {
	var added timeline.Segment
	err := c.history.Do(func() error {
		var err error
		added, err = c.store.Insert(timeline.Segment{
			Start: timeline.RoundTime(start),
			End:   timeline.RoundTime(end),
			Text:  text,
		})
		if err != nil {
			return err
		}
		return c.store.Select(added.ID, false, false)
	})
	if err != nil {
		return timeline.Segment{}, err
	}
	c.changed()
	return added, nil
}

// ImportSegments inserts a batch, e.g. recognition results, as one undo
// step.
func (c *Controller) ImportSegments(segs []timeline.Segment) ([]timeline.Segment, error) {
	if len(segs) == 0 {
		return nil, nil
	}
	var added []timeline.Segment
	err := c.history.Do(func() error {
		var err error
		added, err = c.store.InsertMany(segs)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger.Debugw("Imported segments", "count", len(added))
	c.changed()
	return added, nil
}

// Undo reverts the last edit.
func (c *Controller) Undo() bool {
	if !c.history.Undo() {
		return false
	}
	c.changed()
	return true
}

// Redo re-applies the last undone edit.
func (c *Controller) Redo() bool {
	if !c.history.Redo() {
		return false
	}
	c.changed()
	return true
}
