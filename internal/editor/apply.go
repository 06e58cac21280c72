package editor

import (
	"fmt"

	"github.com/mgpai22/cueline/internal/timeline"
)

// MatchPolicy decides which segment an external text result lands on.
type MatchPolicy int

const (
	// MatchByID uses TextResult.ID.
	MatchByID MatchPolicy = iota
	// MatchByIndex uses TextResult.Index as a position in the collection.
	MatchByIndex
	// MatchByOverlap picks the segment sharing the most time with
	// [Start, End). Results overlapping nothing are skipped.
	MatchByOverlap
)

func (p MatchPolicy) String() string {
	switch p {
	case MatchByIndex:
		return "index"
	case MatchByOverlap:
		return "overlap"
	default:
		return "id"
	}
}

// TextResult is a text replacement produced outside the editor, e.g. by a
// translation backend.
type TextResult struct {
	ID    string
	Index int
	Start float64
	End   float64
	Text  string
}

// ApplyTexts replaces segment texts from results as one undo step. The whole
// batch is resolved against the collection before anything is changed; with
// MatchByID or MatchByIndex an unresolved result fails the batch. It returns
// the number of segments updated.
func (c *Controller) ApplyTexts(results []TextResult, policy MatchPolicy) (int, error) {
	segs := c.store.Segments()
	updates, err := resolve(results, segs, policy)
	if err != nil {
		return 0, err
	}
	if len(updates) == 0 {
		return 0, nil
	}

	err = c.history.Do(func() error {
		for _, u := range updates {
			if err := c.store.UpdateText(u.id, u.text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.logger.Debugw("Applied text results",
		"policy", policy.String(),
		"results", len(results),
		"updated", len(updates),
	)
	c.changed()
	return len(updates), nil
}

type textUpdate struct {
	id   string
	text string
}

func resolve(results []TextResult, segs []timeline.Segment, policy MatchPolicy) ([]textUpdate, error) {
	known := make(map[string]struct{}, len(segs))
	for _, s := range segs {
		known[s.ID] = struct{}{}
	}

	updates := make([]textUpdate, 0, len(results))
	for i, r := range results {
		switch policy {
		case MatchByID:
			if _, ok := known[r.ID]; !ok {
				return nil, fmt.Errorf("result %d: %w: %w", i, ErrUnmatchedResult, &timeline.UnknownIDError{ID: r.ID})
			}
			updates = append(updates, textUpdate{id: r.ID, text: r.Text})

		case MatchByIndex:
			if r.Index < 0 || r.Index >= len(segs) {
				return nil, fmt.Errorf(
					"result %d: %w: index %d out of range [0, %d)",
					i, ErrUnmatchedResult, r.Index, len(segs),
				)
			}
			updates = append(updates, textUpdate{id: segs[r.Index].ID, text: r.Text})

		case MatchByOverlap:
			if id, ok := bestOverlap(r.Start, r.End, segs); ok {
				updates = append(updates, textUpdate{id: id, text: r.Text})
			}

		default:
			return nil, fmt.Errorf("unknown match policy %d", policy)
		}
	}
	return updates, nil
}

func bestOverlap(start, end float64, segs []timeline.Segment) (string, bool) {
	best, bestLen := "", 0.0
	for _, s := range segs {
		lo, hi := s.Start, s.End
		if start > lo {
			lo = start
		}
		if end < hi {
			hi = end
		}
		if d := hi - lo; d > bestLen {
			best, bestLen = s.ID, d
		}
	}
	return best, best != ""
}
