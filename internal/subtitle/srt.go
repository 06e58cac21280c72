package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// a blank-line separated group of lines and the line number it starts on
type block struct {
	line  int
	lines []string
}

func readBlocks(r io.Reader) ([]block, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var blocks []block
	var current *block
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
			continue
		}
		if current == nil {
			current = &block{line: lineNum}
		}
		current.lines = append(current.lines, line)
	}
	if current != nil {
		blocks = append(blocks, *current)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// parseCue reads an optional identifier line, the timing line and the text
// lines of one block. ok is false when the block holds no timing line.
func parseCue(b block) (Entry, bool, error) {
	for i, line := range b.lines {
		matches := cueTimingRegex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		start, err := parseCueTimestamp(matches[1])
		if err != nil {
			return Entry{}, false, fmt.Errorf(
				"invalid start timestamp at line %d: %w",
				b.line+i,
				err,
			)
		}
		end, err := parseCueTimestamp(matches[2])
		if err != nil {
			return Entry{}, false, fmt.Errorf(
				"invalid end timestamp at line %d: %w",
				b.line+i,
				err,
			)
		}
		return Entry{
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(b.lines[i+1:], "\n"),
		}, true, nil
	}
	return Entry{}, false, nil
}

func parseSRT(r io.Reader) (*Document, error) {
	blocks, err := readBlocks(r)
	if err != nil {
		return nil, fmt.Errorf("error reading SRT file: %w", err)
	}

	doc := NewDocument(FormatSRT)
	for _, b := range blocks {
		entry, ok, err := parseCue(b)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc, nil
}

func encodeSRT(w *bufio.Writer, entries []Entry) error {
	for i, entry := range entries {
		// index (1-based)
		w.WriteString(strconv.Itoa(i + 1))
		w.WriteString("\n")

		// timestamps: 00:00:00,000 --> 00:00:00,000
		w.WriteString(formatSRTTime(entry.StartTime))
		w.WriteString(" --> ")
		w.WriteString(formatSRTTime(entry.EndTime))
		w.WriteString("\n")

		if entry.Text != "" {
			w.WriteString(stripBlankLines(entry.Text))
			w.WriteString("\n")
		}
		w.WriteString("\n")
	}
	return w.Flush()
}

// blank lines end a cue in SRT and VTT, so they cannot appear inside text
func stripBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
