package editor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/cueline/internal/timeline"
)

func texts(segs []timeline.Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Text
	}
	return out
}

func TestApplyTextsByID(t *testing.T) {
	s, _ := newTestSession(t, fiveSegments())

	n, err := s.Controller.ApplyTexts([]TextResult{
		{ID: "4", Text: "vier"},
		{ID: "1", Text: "eins"},
	}, MatchByID)
	if err != nil {
		t.Fatalf("ApplyTexts returned error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 updated, got %d", n)
	}
	want := []string{"eins", "two", "three", "vier", "five"}
	if diff := cmp.Diff(want, texts(s.Store.Segments())); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
	if undoDepth(s) != 1 {
		t.Errorf("expected one history entry, got %d", undoDepth(s))
	}
}

func TestApplyTextsUnknownIDFailsWholeBatch(t *testing.T) {
	s, _ := newTestSession(t, fiveSegments())

	_, err := s.Controller.ApplyTexts([]TextResult{
		{ID: "1", Text: "eins"},
		{ID: "gone", Text: "?"},
	}, MatchByID)
	if !errors.Is(err, ErrUnmatchedResult) || !errors.Is(err, timeline.ErrUnknownID) {
		t.Fatalf("expected unmatched unknown id error, got %v", err)
	}
	if diff := cmp.Diff(fiveSegments(), s.Store.Segments()); diff != "" {
		t.Errorf("failed batch changed the store (-want +got):\n%s", diff)
	}
	if undoDepth(s) != 0 {
		t.Error("failed batch left a history entry")
	}
}

func TestApplyTextsByIndex(t *testing.T) {
	s, _ := newTestSession(t, fiveSegments())

	if _, err := s.Controller.ApplyTexts([]TextResult{{Index: 5, Text: "x"}}, MatchByIndex); !errors.Is(err, ErrUnmatchedResult) {
		t.Fatalf("expected ErrUnmatchedResult, got %v", err)
	}
	n, err := s.Controller.ApplyTexts([]TextResult{{Index: 0, Text: "first"}, {Index: 4, Text: "last"}}, MatchByIndex)
	if err != nil || n != 2 {
		t.Fatalf("ApplyTexts = (%d, %v), want (2, nil)", n, err)
	}
	want := []string{"first", "two", "three", "four", "last"}
	if diff := cmp.Diff(want, texts(s.Store.Segments())); diff != "" {
		t.Errorf("texts mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyTextsByOverlap(t *testing.T) {
	s, _ := newTestSession(t, fiveSegments())

	n, err := s.Controller.ApplyTexts([]TextResult{
		{Start: 1.6, End: 2.9, Text: "mostly three"},
		{Start: 20, End: 21, Text: "nowhere"},
	}, MatchByOverlap)
	if err != nil {
		t.Fatalf("ApplyTexts returned error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 updated, got %d", n)
	}
	got, _ := s.Store.Get("3")
	if got.Text != "mostly three" {
		t.Errorf("expected overlap match on 3, got text %q", got.Text)
	}

	n, _ = s.Controller.ApplyTexts([]TextResult{{Start: 30, End: 31, Text: "x"}}, MatchByOverlap)
	if n != 0 || undoDepth(s) != 1 {
		t.Errorf("no matches should record nothing, n=%d depth=%d", n, undoDepth(s))
	}
}
