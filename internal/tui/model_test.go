package tui

import (
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mgpai22/cueline/internal/clipboard"
	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"

	tea "github.com/charmbracelet/bubbletea"
)

func testSegments() []timeline.Segment {
	return []timeline.Segment{
		{ID: "a", Start: 0, End: 2, Text: "alpha"},
		{ID: "b", Start: 2.5, End: 4, Text: "bravo"},
		{ID: "c", Start: 5, End: 7, Text: "charlie"},
	}
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	logger := logging.New(zaptest.NewLogger(t))
	s, err := editor.NewSession(testSegments(), nil, editor.DefaultOptions(), logger)
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = &clipboard.Memory{}
	}
	opts.Logger = logger
	return New(s, opts)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds keys one by one and returns the resulting model.
func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		updated, _ := m.Update(k)
		m = updated.(Model)
	}
	return m
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, Options{})
	if m.cursor != 0 {
		t.Errorf("cursor should start on the first row, got %d", m.cursor)
	}
	if len(m.frame.Segments) != 3 {
		t.Errorf("expected 3 segments in frame, got %d", len(m.frame.Segments))
	}
	if m.Dirty() {
		t.Error("a fresh model should not be dirty")
	}
	if m.editing {
		t.Error("a fresh model should not be editing")
	}
}

func TestMoveClicksAndSeeks(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("j"))

	if m.cursor != 1 {
		t.Fatalf("expected cursor on row 1, got %d", m.cursor)
	}
	if got := m.frame.Selection.ActiveID; got != "b" {
		t.Errorf("expected b active, got %q", got)
	}
	if m.clock.Position() != 2.5 {
		t.Errorf("plain move should seek to the segment start, got %v", m.clock.Position())
	}
	if m.frame.Playhead != 2.5 {
		t.Errorf("frame play-head should follow the seek, got %v", m.frame.Playhead)
	}
}

func TestExtendMergeAndUndo(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("k"), runes("J"))

	if got := m.frame.Selection.IDs; len(got) != 2 {
		t.Fatalf("expected two selected, got %v", got)
	}

	m = press(m, runes("m"))
	if len(m.frame.Segments) != 2 {
		t.Fatalf("expected 2 segments after merge, got %d", len(m.frame.Segments))
	}
	if !m.Dirty() {
		t.Error("merge should make the model dirty")
	}

	m = press(m, runes("u"))
	if len(m.frame.Segments) != 3 {
		t.Errorf("undo should restore 3 segments, got %d", len(m.frame.Segments))
	}
	if !m.frame.CanRedo {
		t.Error("expected redo to be available")
	}
}

func TestToggleKeepsCursor(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("k"), runes("j"), tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	if m.cursor != 1 {
		t.Errorf("toggle should not move the cursor, got %d", m.cursor)
	}
	if m.frame.Selection.Contains("b") {
		t.Error("toggle should deselect the row under the cursor")
	}
}

func TestEditCommit(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("e"))
	if !m.editing {
		t.Fatal("expected edit mode")
	}

	m = press(m,
		tea.KeyMsg{Type: tea.KeyBackspace},
		tea.KeyMsg{Type: tea.KeyBackspace},
		runes("!"),
		tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
		tea.KeyMsg{Type: tea.KeyCtrlN},
		runes("x"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	if m.editing {
		t.Error("enter should leave edit mode")
	}
	seg, _ := m.session.Store.Get("a")
	if seg.Text != "alp! \nx" {
		t.Errorf("unexpected text %q", seg.Text)
	}
}

func TestEditMovesCaret(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m,
		runes("e"),
		tea.KeyMsg{Type: tea.KeyLeft},
		tea.KeyMsg{Type: tea.KeyLeft},
		runes("-"),
		tea.KeyMsg{Type: tea.KeyHome},
		runes(">"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	seg, _ := m.session.Store.Get("a")
	if seg.Text != ">alp-ha" {
		t.Errorf("expected text edited at the caret, got %q", seg.Text)
	}
	if past, _ := m.session.History.Depth(); past != 1 {
		t.Errorf("an edit should be one undo step, got %d", past)
	}
}

func TestEditCancel(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("e"), runes("zzz"), tea.KeyMsg{Type: tea.KeyEsc})

	if m.editing {
		t.Error("esc should leave edit mode")
	}
	seg, _ := m.session.Store.Get("a")
	if seg.Text != "alpha" {
		t.Errorf("cancel should keep the text, got %q", seg.Text)
	}
	if m.Dirty() {
		t.Error("cancelled edit should not dirty the model")
	}
}

func TestNudgeRunIsOneUndoStep(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("k"), runes("l"), runes("l"), runes("l"))

	if !m.session.Bridge.Dragging() {
		t.Fatal("a run of nudges should keep the gesture open")
	}
	seg, _ := m.session.Store.Get("a")
	if !near(seg.End, 2.3) {
		t.Errorf("expected end 2.3, got %v", seg.End)
	}

	// any other key closes the gesture
	m = press(m, runes("j"))
	if m.session.Bridge.Dragging() {
		t.Error("gesture should be closed")
	}
	past, _ := m.session.History.Depth()
	if past != 1 {
		t.Errorf("expected one undo step, got %d", past)
	}

	m = press(m, runes("u"))
	seg, _ = m.session.Store.Get("a")
	if seg.End != 2 {
		t.Errorf("undo should restore end 2, got %v", seg.End)
	}
}

func TestNudgeStartKeys(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("j"), runes("H"), runes("L"), runes("L"))

	seg, _ := m.session.Store.Get("b")
	if !near(seg.Start, 2.6) {
		t.Errorf("expected start 2.6, got %v", seg.Start)
	}
}

func TestSplitAtPlayhead(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("k"))
	m.clock.Seek(1)
	m = press(m, runes("s"))

	if len(m.frame.Segments) != 4 {
		t.Fatalf("expected 4 segments after split, got %d", len(m.frame.Segments))
	}
	if m.frame.Segments[0].End != 1 || m.frame.Segments[1].Start != 1 {
		t.Errorf("split should cut at 1s, got %+v", m.frame.Segments[:2])
	}
}

func TestDeleteAndAdd(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("j"), runes("d"))
	if len(m.frame.Segments) != 2 {
		t.Fatalf("expected 2 segments after delete, got %d", len(m.frame.Segments))
	}

	m.clock.Seek(8)
	m = press(m, runes("a"))
	if len(m.frame.Segments) != 3 {
		t.Fatalf("expected 3 segments after add, got %d", len(m.frame.Segments))
	}
	last := m.frame.Segments[2]
	if last.Start != 8 || last.End != 10 {
		t.Errorf("expected added segment [8,10), got [%v,%v)", last.Start, last.End)
	}
	if m.frame.Selection.ActiveID != last.ID || m.cursor != 2 {
		t.Error("added segment should be active under the cursor")
	}
}

func TestCopyPaste(t *testing.T) {
	clip := &clipboard.Memory{}
	m := newTestModel(t, Options{Clipboard: clip})

	m = press(m, runes("k"), runes("J"), runes("y"))
	got, _ := clip.ReadAll()
	if got != "alpha\n\nbravo" {
		t.Errorf("unexpected clipboard text %q", got)
	}

	_ = clip.WriteAll("pasted\r\n")
	m = press(m, runes("j"), runes("p"))
	seg, _ := m.session.Store.Get("c")
	if seg.Text != "pasted" {
		t.Errorf("expected pasted text, got %q", seg.Text)
	}
}

func TestWriteSaves(t *testing.T) {
	var written []timeline.Segment
	m := newTestModel(t, Options{
		Path: "out.srt",
		Save: func(segs []timeline.Segment) error {
			written = segs
			return nil
		},
	})
	m = press(m, runes("j"), runes("d"))

	updated, cmd := m.Update(runes("w"))
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("write should return a command")
	}
	msg := cmd()
	if len(written) != 2 {
		t.Errorf("expected 2 segments written, got %d", len(written))
	}

	updated, _ = m.Update(msg)
	m = updated.(Model)
	if m.Dirty() {
		t.Error("model should be clean after saving")
	}
}

func TestQuitConfirmsUnsavedChanges(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("d"), runes("j"), runes("d"))

	updated, _ := m.Update(runes("q"))
	m = updated.(Model)
	if !m.confirmQuit {
		t.Fatal("first q with unsaved changes should ask for confirmation")
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("second q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit message")
	}
}

func TestTickFollowsPlayingSegment(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if !m.clock.Playing() {
		t.Fatal("tab should start playback")
	}

	updated, _ := m.Update(tickMsg(time.Now().Add(3 * time.Second)))
	m = updated.(Model)

	if m.frame.PlayingID != "b" {
		t.Errorf("expected b playing, got %q", m.frame.PlayingID)
	}
	if m.cursor != 1 {
		t.Errorf("cursor should follow playback to row 1, got %d", m.cursor)
	}
}

func TestTickDoesNotScrollWhileEditing(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("e"))
	m.clock.Toggle(time.Now())

	updated, _ := m.Update(tickMsg(time.Now().Add(3 * time.Second)))
	m = updated.(Model)

	if m.cursor != 0 {
		t.Errorf("editing should suppress auto-scroll, cursor at %d", m.cursor)
	}
}

func TestViewShowsRowsAndStatus(t *testing.T) {
	m := newTestModel(t, Options{Path: "/tmp/movie.srt"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m = updated.(Model)

	out := m.View()
	for _, want := range []string{"movie.srt", "alpha", "bravo", "charlie", "3 segments", "0:02.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderStrip(t *testing.T) {
	regions := []editor.Region{
		{ID: "a", Start: 0, End: 10, Selected: true},
		{ID: "b", Start: 10, End: 20, Invalid: true},
	}
	got := string(renderStrip(regions, 25, 0, 30, 30))
	want := strings.Repeat("█", 10) + strings.Repeat("▓", 10) + "·····│····"
	if got != want {
		t.Errorf("strip mismatch:\nwant %s\ngot  %s", want, got)
	}

	if renderStrip(regions, 0, 0, 30, 0) != nil {
		t.Error("zero width should render nothing")
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		sec  float64
		want string
	}{
		{0, "0:00.00"},
		{2.5, "0:02.50"},
		{61.25, "1:01.25"},
		{3723.456, "1:02:03.46"},
		{-1, "0:00.00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.sec); got != tt.want {
			t.Errorf("formatClock(%v) = %q, want %q", tt.sec, got, tt.want)
		}
	}
}

func TestClockStopsAtEnd(t *testing.T) {
	c := NewClock(10)
	start := time.Now()
	c.Toggle(start)
	if got := c.Advance(start.Add(4 * time.Second)); !near(got, 4) {
		t.Errorf("expected 4, got %v", got)
	}
	if got := c.Advance(start.Add(20 * time.Second)); got != 10 {
		t.Errorf("expected clamp to 10, got %v", got)
	}
	if c.Playing() {
		t.Error("clock should stop at the end")
	}
}
