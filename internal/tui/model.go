package tui

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mgpai22/cueline/internal/clipboard"
	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/logging"
	"github.com/mgpai22/cueline/internal/timeline"
	"github.com/mgpai22/cueline/internal/validate"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tickInterval = 100 * time.Millisecond
	statusTTL    = 4 * time.Second

	// seconds of timeline shown by the waveform strip
	stripSpan = 30.0

	// header, divider, strip, divider, status and key hints
	chromeLines = 7

	// rows of the text editor shown under the list while editing
	editHeight = 3
)

// SaveFunc persists the current segments.
type SaveFunc func(segs []timeline.Segment) error

// Options configure the editor view.
type Options struct {
	// Path is shown in the header.
	Path string
	// Duration bounds the play-head; 0 leaves it unbounded.
	Duration  float64
	Save      SaveFunc
	Clipboard clipboard.Clipboard
	Logger    *logging.Logger
}

// Model is the root bubbletea model of the subtitle editor. Every edit goes
// through the session's controller or bridge; the model only keeps cursor
// and input state.
type Model struct {
	session *editor.Session
	clock   *Clock
	clip    clipboard.Clipboard
	save    SaveFunc
	path    string
	logger  *logging.Logger

	frame    editor.Frame
	scrolled int

	// List state
	cursor int
	offset int
	width  int
	height int

	// Text editing
	editing bool
	editID  string
	input   textarea.Model

	// id of the segment an open nudge gesture belongs to
	nudgeID string

	saved       []timeline.Segment
	confirmQuit bool

	statusText string
	statusErr  bool
	statusSeq  int
}

// New creates the editor view over session. The clock becomes the session's
// player.
func New(session *editor.Session, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.Default()
	}
	clock := NewClock(opts.Duration)
	session.Controller.SetPlayer(clock)

	m := Model{
		session: session,
		clock:   clock,
		clip:    clip,
		save:    opts.Save,
		path:    opts.Path,
		logger:  logger.Named("tui"),
		saved:   session.Segments(),
		input:   newInput(),
		width:   80,
		height:  24,
	}
	m.refresh(true)
	return m
}

// Init starts the play-head ticker.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// newInput builds the segment text editor. enter is left to the model for
// committing, so new lines go on ctrl+n.
func newInput() textarea.Model {
	ta := textarea.New()
	ta.Prompt = "│ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(editHeight)
	ta.KeyMap.InsertNewline.SetKeys(keyEditNewline)
	ta.KeyMap.LineNext.SetKeys("down")
	return ta
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// saveCmd writes segs off the update loop.
func saveCmd(save SaveFunc, segs []timeline.Segment) tea.Cmd {
	return func() tea.Msg {
		return SavedMsg{Segments: segs, Err: save(segs)}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(m.width-2, 1))
		m.scrollIntoView()
		return m, nil

	case tickMsg:
		if m.clock.Playing() {
			pos := m.clock.Advance(time.Time(msg))
			m.session.Bridge.Tick(pos)
			m.refresh(false)
		}
		return m, tickCmd()

	case SavedMsg:
		if msg.Err != nil {
			m.logger.Warnw("Failed to save subtitles", "path", m.path, "error", msg.Err)
			return m, m.setError(fmt.Errorf("failed to save: %w", msg.Err))
		}
		m.saved = msg.Segments
		m.logger.Infow("Saved subtitles", "path", m.path, "segments", len(msg.Segments))
		return m, m.setStatus("saved " + filepath.Base(m.path))

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusText = ""
			m.statusErr = false
		}
		return m, nil
	}

	// cursor blink and the like
	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func isNudgeKey(key string) bool {
	switch key {
	case keyEndLeft, keyEndRight, keyStartLeft, keyStartRight:
		return true
	}
	return false
}

// handleKey dispatches a key press outside of text editing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if !isNudgeKey(key) {
		m.endNudge()
	}
	if key != keyQuit {
		m.confirmQuit = false
	}

	c := m.session.Controller
	var cmd tea.Cmd
	follow := true

	switch key {
	case keyQuit, keyCtrlC:
		if key == keyQuit && m.Dirty() && !m.confirmQuit {
			m.confirmQuit = true
			return m, m.setStatus("unsaved changes, press q again to quit")
		}
		return m, tea.Quit

	case keyDown, keyArrowDown:
		cmd = m.moveCursor(1, editor.Modifiers{})
	case keyUp, keyArrowUp:
		cmd = m.moveCursor(-1, editor.Modifiers{})
	case keyExtendDown:
		cmd = m.moveCursor(1, editor.Modifiers{Shift: true})
	case keyExtendUp:
		cmd = m.moveCursor(-1, editor.Modifiers{Shift: true})

	case keyToggle:
		if id := m.cursorID(); id != "" {
			cmd = m.report(c.Click(id, editor.Modifiers{Ctrl: true}, false), "")
		}
		follow = false

	case keySeek:
		if id := m.cursorID(); id != "" {
			cmd = m.report(c.DoubleClick(id), "")
		}
		follow = false

	case keyEdit:
		return m, m.startEdit()

	case keyEndLeft, keyEndRight, keyStartLeft, keyStartRight:
		cmd = m.nudge(key)

	case keyMerge:
		_, err := c.MergeSelected()
		cmd = m.report(err, "merged")
	case keySplit:
		_, _, err := c.SplitActive(m.clock.Position())
		cmd = m.report(err, "split")
	case keyDelete:
		if n := c.DeleteSelected(); n > 0 {
			cmd = m.setStatus(fmt.Sprintf("deleted %d", n))
		}
	case keyAdd:
		at := m.clock.Position()
		_, err := c.AddSegment(at, at+addLength, "")
		cmd = m.report(err, "added")
	case keyAutoFix:
		if c.AutoFix() {
			cmd = m.setStatus("fixed overlaps")
		} else {
			cmd = m.setStatus("no overlaps")
		}
	case keyUndo:
		if !c.Undo() {
			cmd = m.setStatus("nothing to undo")
		}
	case keyRedo:
		if !c.Redo() {
			cmd = m.setStatus("nothing to redo")
		}

	case keyCopy:
		cmd = m.report(clipboard.Copy(m.clip, m.selectedSegments()), "copied")
	case keyPaste:
		text, err := clipboard.Paste(m.clip)
		if err == nil {
			err = c.PasteText(text)
		}
		cmd = m.report(err, "pasted")

	case keyPlay:
		m.clock.Toggle(time.Now())
		follow = false
	case keyFollow:
		on := !m.session.Bridge.AutoScroll()
		m.session.Bridge.SetAutoScroll(on)
		cmd = m.setStatus(fmt.Sprintf("follow playback %s", onOff(on)))
		follow = false

	case keyWrite:
		if m.save == nil {
			return m, m.setError(errors.New("no output file"))
		}
		return m, saveCmd(m.save, m.session.Segments())

	default:
		return m, nil
	}

	m.syncPlayhead()
	m.refresh(follow)
	return m, cmd
}

// handleEditKey routes keys to the text editor. enter commits the text as
// one edit, esc throws it away.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEditCommit:
		err := m.session.Controller.CommitText(m.editID, m.input.Value())
		m.stopEdit()
		m.refresh(true)
		return m, m.report(err, "")
	case keyEditCancel, keyCtrlC:
		m.stopEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startEdit() tea.Cmd {
	seg, ok := m.session.Store.Get(m.cursorID())
	if !ok {
		return nil
	}
	if err := m.session.Controller.Click(seg.ID, editor.Modifiers{}, false); err != nil {
		return nil
	}
	m.editing = true
	m.editID = seg.ID
	m.input.SetWidth(max(m.width-2, 1))
	m.input.SetValue(seg.Text)
	m.session.Bridge.SetEditing(true)
	m.refresh(true)
	return m.input.Focus()
}

func (m *Model) stopEdit() {
	m.editing = false
	m.editID = ""
	m.input.Reset()
	m.input.Blur()
	m.session.Bridge.SetEditing(false)
}

// moveCursor moves the cursor by delta and clicks the new row.
func (m *Model) moveCursor(delta int, mods editor.Modifiers) tea.Cmd {
	n := len(m.frame.Segments)
	if n == 0 {
		return nil
	}
	m.cursor = clamp(m.cursor+delta, 0, n-1)
	id := m.frame.Segments[m.cursor].ID
	if mods.Shift {
		return m.report(m.session.Controller.Click(id, mods, false), "")
	}
	return m.report(m.session.Click(id, mods), "")
}

// nudge shifts one bound of the cursor segment. A run of nudges on the same
// segment is one drag gesture and undoes in one step.
func (m *Model) nudge(key string) tea.Cmd {
	seg, ok := m.session.Store.Get(m.cursorID())
	if !ok {
		return nil
	}
	bridge := m.session.Bridge
	if m.nudgeID != seg.ID {
		m.endNudge()
		if err := bridge.DragStart(seg.ID); err != nil {
			return m.setError(err)
		}
		m.nudgeID = seg.ID
	}

	start, end := seg.Start, seg.End
	switch key {
	case keyEndLeft:
		end -= nudgeStep
	case keyEndRight:
		end += nudgeStep
	case keyStartLeft:
		start -= nudgeStep
	case keyStartRight:
		start += nudgeStep
	}
	if err := bridge.DragMove(seg.ID, start, end); err != nil {
		if errors.Is(err, editor.ErrNotDragging) {
			m.nudgeID = ""
		}
		return m.setError(err)
	}
	return nil
}

// endNudge closes an open nudge gesture.
func (m *Model) endNudge() {
	if m.nudgeID == "" {
		return
	}
	m.nudgeID = ""
	m.session.Bridge.DragEnd()
}

// syncPlayhead publishes a seek made by the controller.
func (m *Model) syncPlayhead() {
	if pos := m.clock.Position(); pos != m.session.Bridge.Playhead() {
		m.session.Bridge.Tick(pos)
	}
}

// refresh pulls the latest frame. A scroll request wins over following the
// active segment.
func (m *Model) refresh(follow bool) {
	m.frame = m.session.Frame()
	f := m.frame
	switch {
	case f.ScrollTo != "" && f.Version != m.scrolled:
		m.scrolled = f.Version
		if i := m.session.Store.IndexOf(f.ScrollTo); i >= 0 {
			m.cursor = i
		}
	case follow && f.Selection.ActiveID != "":
		if i := m.session.Store.IndexOf(f.Selection.ActiveID); i >= 0 {
			m.cursor = i
		}
	}
	m.cursor = clamp(m.cursor, 0, len(f.Segments)-1)
	m.scrollIntoView()
}

func (m *Model) scrollIntoView() {
	rows := m.listRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) listRows() int {
	if m.editing {
		return max(m.height-chromeLines-editHeight, 1)
	}
	return max(m.height-chromeLines, 1)
}

func (m Model) cursorID() string {
	if m.cursor < 0 || m.cursor >= len(m.frame.Segments) {
		return ""
	}
	return m.frame.Segments[m.cursor].ID
}

func (m Model) selectedSegments() []timeline.Segment {
	var out []timeline.Segment
	for _, seg := range m.frame.Segments {
		if m.frame.Selection.Contains(seg.ID) {
			out = append(out, seg)
		}
	}
	return out
}

// Dirty reports whether there are edits that have not been written.
func (m Model) Dirty() bool {
	return !timeline.Equal(m.saved, m.session.Segments())
}

func (m *Model) report(err error, ok string) tea.Cmd {
	if err != nil {
		return m.setError(err)
	}
	if ok == "" {
		return nil
	}
	return m.setStatus(ok)
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.statusText = text
	m.statusErr = false
	return clearStatusCmd(m.statusSeq)
}

func (m *Model) setError(err error) tea.Cmd {
	m.statusSeq++
	m.statusText = err.Error()
	m.statusErr = true
	return clearStatusCmd(m.statusSeq)
}

// View renders the header, the segment list, the waveform strip and the
// footer.
func (m Model) View() string {
	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 1)))
	sections := []string{
		m.renderHeader(),
		divider,
		m.renderList(),
	}
	if m.editing {
		sections = append(sections, m.input.View())
	}
	sections = append(sections,
		divider,
		m.renderStripLine(),
		divider,
		m.renderStatus(),
		m.renderFooter(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	name := "untitled"
	if m.path != "" {
		name = filepath.Base(m.path)
	}
	if m.Dirty() {
		name += " *"
	}
	state := "paused"
	if m.clock.Playing() {
		state = "playing"
	}
	right := fmt.Sprintf(
		"%s  %s  follow %s",
		formatClock(m.clock.Position()),
		state,
		onOff(m.session.Bridge.AutoScroll()),
	)
	left := titleStyle.Render("cueline") + "  " + name
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + dimStyle.Render(right)
}

func (m Model) renderList() string {
	rows := m.listRows()
	segs := m.frame.Segments
	if len(segs) == 0 {
		return dimStyle.Render("no segments, press a to add one") + strings.Repeat("\n", rows-1)
	}

	issues := validate.ByID(m.frame.Issues)
	lines := make([]string, 0, rows)
	for i := m.offset; i < len(segs) && len(lines) < rows; i++ {
		lines = append(lines, m.renderRow(i, segs[i], issues[segs[i].ID]))
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(i int, seg timeline.Segment, issues []validate.Issue) string {
	cursor := "  "
	if i == m.cursor {
		cursor = "> "
	}
	mark := " "
	if m.frame.Selection.Contains(seg.ID) {
		mark = "*"
	}
	flag := " "
	errs, warns := validate.Counts(issues)
	switch {
	case errs > 0:
		flag = errorStyle.Render("!")
	case warns > 0:
		flag = warningStyle.Render("?")
	}

	text := strings.ReplaceAll(seg.Text, "\n", " / ")
	times := fmt.Sprintf("%s → %s", formatClock(seg.Start), formatClock(seg.End))
	prefix := cursor + mark + flag + " " + times + "  "
	text = truncate(text, m.width-utf8.RuneCountInString(prefix))
	if m.editing && seg.ID == m.editID {
		text = editStyle.Render(text)
	}

	line := prefix + text
	switch {
	case i == m.cursor:
		return cursorStyle.Render(line)
	case seg.ID == m.frame.PlayingID:
		return playingStyle.Render(line)
	case mark == "*":
		return selectedStyle.Render(line)
	}
	return line
}

func (m Model) renderStripLine() string {
	start := math.Max(m.frame.Playhead-stripSpan/2, 0)
	strip := renderStrip(m.frame.Regions, m.frame.Playhead, start, stripSpan, max(m.width, 1))
	var b strings.Builder
	for _, r := range strip {
		switch r {
		case stripPlayhead:
			b.WriteString(playheadStyle.Render(string(r)))
		case stripSelected:
			b.WriteString(stripSelectedStyle.Render(string(r)))
		case stripInvalid:
			b.WriteString(stripInvalidStyle.Render(string(r)))
		default:
			b.WriteString(dimStyle.Render(string(r)))
		}
	}
	return b.String()
}

func (m Model) renderStatus() string {
	errs, warns := validate.Counts(m.frame.Issues)
	summary := fmt.Sprintf(
		"%d segments  %d selected  %d errors  %d warnings  undo %s  redo %s",
		len(m.frame.Segments),
		len(m.frame.Selection.IDs),
		errs,
		warns,
		onOff(m.frame.CanUndo),
		onOff(m.frame.CanRedo),
	)
	if m.statusText == "" {
		return dimStyle.Render(summary)
	}
	if m.statusErr {
		return errorStyle.Render(m.statusText)
	}
	return warningStyle.Render(m.statusText)
}

func (m Model) renderFooter() string {
	type hint struct{ key, desc string }
	hints := []hint{
		{"j/k", "move"}, {"J/K", "extend"}, {"space", "toggle"}, {"enter", "seek"},
		{"e", "edit"}, {"h/l H/L", "nudge"}, {"m", "merge"}, {"s", "split"},
		{"d", "delete"}, {"a", "add"}, {"f", "fix"}, {"u/r", "undo/redo"},
		{"y/p", "copy/paste"}, {"tab", "play"}, {"w", "write"}, {"q", "quit"},
	}
	if m.editing {
		hints = []hint{{"enter", "commit"}, {"esc", "cancel"}, {"ctrl+n", "newline"}}
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = footerKeyStyle.Render(h.key) + " " + footerDescStyle.Render(h.desc)
	}
	return lipgloss.NewStyle().Width(max(m.width, 1)).Render(strings.Join(parts, "  "))
}

// strip cells
const (
	stripEmpty    = '·'
	stripSegment  = '▒'
	stripSelected = '█'
	stripInvalid  = '▓'
	stripPlayhead = '│'
)

// renderStrip draws regions between start and start+span into width cells.
// Each cell shows the region covering its midpoint; the play-head cell wins.
func renderStrip(regions []editor.Region, playhead, start, span float64, width int) []rune {
	if width <= 0 || span <= 0 {
		return nil
	}
	cells := make([]rune, width)
	step := span / float64(width)
	for i := range cells {
		t := start + (float64(i)+0.5)*step
		cells[i] = stripEmpty
		for _, r := range regions {
			if t < r.Start || t >= r.End {
				continue
			}
			switch {
			case r.Selected:
				cells[i] = stripSelected
			case r.Invalid:
				cells[i] = stripInvalid
			default:
				cells[i] = stripSegment
			}
			break
		}
	}
	if playhead >= start && playhead < start+span {
		cells[int((playhead-start)/step)] = stripPlayhead
	}
	return cells
}

// formatClock renders seconds as m:ss.cc, or h:mm:ss.cc past the hour.
func formatClock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int64(math.Round(sec * 100))
	h := cs / 360000
	mnt := cs / 6000 % 60
	s := cs / 100 % 60
	frac := cs % 100
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%02d", h, mnt, s, frac)
	}
	return fmt.Sprintf("%d:%02d.%02d", mnt, s, frac)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
