package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap/zaptest"

	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
)

func newTestServer(t *testing.T, save SaveFunc) *Server {
	t.Helper()
	logger := logging.New(zaptest.NewLogger(t))
	session, err := editor.NewSession([]timeline.Segment{
		{ID: "a", Start: 0, End: 2, Text: "alpha"},
		{ID: "b", Start: 1.5, End: 4, Text: "bravo"},
		{ID: "c", Start: 5, End: 7, Text: "charlie"},
	}, nil, editor.DefaultOptions(), logger)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	return New(session, save, "test", logger)
}

func call(t *testing.T, h handlerFunc, s *Server, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := s.locked(h)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(text(t, res)), &v); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	return v
}

func ids(segs []timeline.Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.ID
	}
	return out
}

func TestListSegments(t *testing.T) {
	s := newTestServer(t, nil)

	all := decode[segmentList](t, call(t, s.handleListSegments, s, nil))
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(all.Segments)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	ranged := decode[segmentList](t, call(t, s.handleListSegments, s, map[string]any{"start": 3.0}))
	if diff := cmp.Diff([]string{"b", "c"}, ids(ranged.Segments)); diff != "" {
		t.Errorf("ranged segments mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectModes(t *testing.T) {
	s := newTestServer(t, nil)

	sel := decode[timeline.Selection](t, call(t, s.handleSelect, s, map[string]any{
		"ids": []any{"a", "c"},
	}))
	if diff := cmp.Diff([]string{"a", "c"}, sel.IDs); diff != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", diff)
	}

	sel = decode[timeline.Selection](t, call(t, s.handleSelect, s, map[string]any{
		"ids": []any{"a", "c"}, "mode": "range",
	}))
	if diff := cmp.Diff([]string{"a", "b", "c"}, sel.IDs); diff != "" {
		t.Errorf("range mismatch (-want +got):\n%s", diff)
	}

	sel = decode[timeline.Selection](t, call(t, s.handleSelect, s, map[string]any{
		"ids": []any{"b"}, "mode": "toggle",
	}))
	if diff := cmp.Diff([]string{"a", "c"}, sel.IDs); diff != "" {
		t.Errorf("toggle mismatch (-want +got):\n%s", diff)
	}

	res := call(t, s.handleSelect, s, map[string]any{"ids": []any{"zzz"}})
	if !res.IsError {
		t.Error("unknown id should be a tool error")
	}
}

func TestUpdateTextAndUndo(t *testing.T) {
	s := newTestServer(t, nil)

	seg := decode[timeline.Segment](t, call(t, s.handleUpdateText, s, map[string]any{
		"id": "b", "text": "changed",
	}))
	if seg.Text != "changed" {
		t.Errorf("expected changed text, got %q", seg.Text)
	}

	undo := decode[map[string]bool](t, call(t, s.handleUndo, s, nil))
	if !undo["changed"] {
		t.Error("undo should report a change")
	}
	got, _ := s.session.Store.Get("b")
	if got.Text != "bravo" {
		t.Errorf("undo should restore text, got %q", got.Text)
	}

	redo := decode[map[string]bool](t, call(t, s.handleRedo, s, nil))
	if !redo["changed"] {
		t.Error("redo should report a change")
	}

	res := call(t, s.handleUpdateText, s, map[string]any{"id": "b"})
	if !res.IsError {
		t.Error("missing text should be a tool error")
	}
}

func TestRetimeSplitMergeDelete(t *testing.T) {
	s := newTestServer(t, nil)

	seg := decode[timeline.Segment](t, call(t, s.handleRetime, s, map[string]any{
		"id": "c", "start": 5.5, "end": 8.0,
	}))
	if seg.Start != 5.5 || seg.End != 8 {
		t.Errorf("unexpected timing [%v,%v)", seg.Start, seg.End)
	}

	res := call(t, s.handleRetime, s, map[string]any{"id": "c", "start": 9.0, "end": 8.0})
	if !res.IsError {
		t.Error("inverted timing should be a tool error")
	}

	halves := decode[[]timeline.Segment](t, call(t, s.handleSplit, s, map[string]any{
		"id": "c", "at": 7.0,
	}))
	if len(halves) != 2 || halves[0].ID != "c" || halves[1].Start != 7 {
		t.Errorf("unexpected split result %+v", halves)
	}

	merged := decode[timeline.Segment](t, call(t, s.handleMerge, s, map[string]any{
		"ids": []any{halves[0].ID, halves[1].ID},
	}))
	if merged.Start != 5.5 || merged.End != 8 {
		t.Errorf("unexpected merged timing [%v,%v)", merged.Start, merged.End)
	}

	deleted := decode[map[string]int](t, call(t, s.handleDelete, s, map[string]any{
		"ids": []any{"a", "missing"},
	}))
	if deleted["deleted"] != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted["deleted"])
	}
	if s.session.Store.Len() != 2 {
		t.Errorf("expected 2 segments left, got %d", s.session.Store.Len())
	}
}

func TestMergeRejectedKeepsSelection(t *testing.T) {
	s := newTestServer(t, nil)
	decode[timeline.Selection](t, call(t, s.handleSelect, s, map[string]any{"ids": []any{"b"}}))

	for _, ids := range [][]any{{"a", "c"}, {"a", "zzz"}} {
		res := call(t, s.handleMerge, s, map[string]any{"ids": ids})
		if !res.IsError {
			t.Errorf("merge of %v should be a tool error", ids)
		}
		if diff := cmp.Diff([]string{"b"}, s.session.Store.Selection().IDs); diff != "" {
			t.Errorf("merge of %v changed the selection (-want +got):\n%s", ids, diff)
		}
	}
	if s.session.Store.Len() != 3 {
		t.Errorf("expected 3 segments, got %d", s.session.Store.Len())
	}
}

func TestValidateAndAutoFix(t *testing.T) {
	s := newTestServer(t, nil)

	before := decode[report](t, call(t, s.handleValidate, s, nil))
	if before.Errors == 0 {
		t.Fatal("overlapping fixture should report errors")
	}

	fixed := decode[map[string]bool](t, call(t, s.handleAutoFix, s, nil))
	if !fixed["changed"] {
		t.Error("auto_fix should change the overlapping fixture")
	}

	after := decode[report](t, call(t, s.handleValidate, s, nil))
	if after.Errors != 0 {
		t.Errorf("expected no errors after auto_fix, got %+v", after.Issues)
	}

	again := decode[map[string]bool](t, call(t, s.handleAutoFix, s, nil))
	if again["changed"] {
		t.Error("second auto_fix should change nothing")
	}
}

func TestSave(t *testing.T) {
	var saved []timeline.Segment
	s := newTestServer(t, func(segs []timeline.Segment) error {
		saved = segs
		return nil
	})
	out := decode[map[string]int](t, call(t, s.handleSave, s, nil))
	if out["saved"] != 3 || len(saved) != 3 {
		t.Errorf("expected 3 saved, got %v / %d", out, len(saved))
	}

	failing := newTestServer(t, func([]timeline.Segment) error {
		return errors.New("disk full")
	})
	res := call(t, failing.handleSave, failing, nil)
	if !res.IsError || !strings.Contains(text(t, res), "disk full") {
		t.Errorf("expected save failure as tool error, got %q", text(t, res))
	}

	none := newTestServer(t, nil)
	if res := call(t, none.handleSave, none, nil); !res.IsError {
		t.Error("save without output should be a tool error")
	}
}
