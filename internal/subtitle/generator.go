package subtitle

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/cueline/internal/timeline"
)

// Generator shapes raw recognition drafts into readable subtitle segments:
// long drafts are cut into several and text is wrapped onto two lines.
type Generator struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
	MinDuration     float64
	MaxDuration     float64
}

func NewDefaultGenerator() *Generator {
	return &Generator{
		MaxCharsPerLine: 42, // Standard subtitle line length
		MaxLinesPerSub:  2,  // Most players support 2 lines
		MinDuration:     1,
		MaxDuration:     7,
	}
}

// Generate returns new segments without ids. Drafts with empty text or
// invalid timing are dropped.
func (g *Generator) Generate(drafts []timeline.Segment) []timeline.Segment {
	out := make([]timeline.Segment, 0, len(drafts))

	for i, d := range drafts {
		text := strings.TrimSpace(d.Text)
		if text == "" || d.End <= d.Start || d.Start < 0 {
			continue
		}

		if g.needsSplit(text, d.Duration()) {
			out = append(out, g.splitDraft(d)...)
			continue
		}
		out = append(out, timeline.Segment{
			Start: timeline.RoundTime(d.Start),
			End:   g.extend(d.Start, d.End, nextStart(drafts, i)),
			Text:  g.formatText(text),
		})
	}

	return out
}

// extend stretches very short drafts to MinDuration without running into
// the next draft
func (g *Generator) extend(start, end, limit float64) float64 {
	if end-start < g.MinDuration {
		end = math.Max(end, math.Min(start+g.MinDuration, limit))
	}
	return timeline.RoundTime(end)
}

func nextStart(drafts []timeline.Segment, i int) float64 {
	if i+1 < len(drafts) {
		return drafts[i+1].Start
	}
	return math.Inf(1)
}

func (g *Generator) needsSplit(text string, duration float64) bool {
	// if text is too long, split
	if utf8.RuneCountInString(text) > g.MaxCharsPerLine*g.MaxLinesPerSub {
		return true
	}
	// if duration is too long, split
	return duration > g.MaxDuration
}

// splits long draft into multiple segments
func (g *Generator) splitDraft(d timeline.Segment) []timeline.Segment {
	text := strings.TrimSpace(d.Text)
	words := strings.Fields(text)
	total := d.Duration()

	if len(words) == 0 {
		return nil
	}

	// approximate characters per subtitle
	maxChars := g.MaxCharsPerLine * g.MaxLinesPerSub
	totalChars := utf8.RuneCountInString(text)

	// estimate of splits needed
	numSplits := (totalChars + maxChars - 1) / maxChars
	if numSplits < 1 {
		numSplits = 1
	}
	if durationSplits := int(total/g.MaxDuration) + 1; durationSplits > numSplits {
		numSplits = durationSplits
	}
	if numSplits > len(words) {
		numSplits = len(words)
	}

	// distribute words across splits
	wordsPerSplit := (len(words) + numSplits - 1) / numSplits
	step := total / float64(numSplits)

	var out []timeline.Segment
	start := d.Start

	for i := 0; i < numSplits && len(words) > 0; i++ {
		n := wordsPerSplit
		if n > len(words) {
			n = len(words)
		}
		chunk := words[:n]
		words = words[n:]

		end := timeline.RoundTime(start + step)
		// Last split should end at the original end time
		if len(words) == 0 {
			end = timeline.RoundTime(d.End)
		}

		out = append(out, timeline.Segment{
			Start: timeline.RoundTime(start),
			End:   end,
			Text:  g.formatText(strings.Join(chunk, " ")),
		})
		start = end
	}

	return out
}

// formatText formats text for display with line wrapping
func (g *Generator) formatText(text string) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)

	// if text fits on one line, return as is
	if runeCount <= g.MaxCharsPerLine {
		return text
	}

	// try to split into two lines at a natural break point
	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	// find the best split point (closest to middle)
	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		return strings.Join(words[:bestSplit], " ") + "\n" +
			strings.Join(words[bestSplit:], " ")
	}

	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
