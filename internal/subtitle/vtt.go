package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func parseVTT(r io.Reader) (*Document, error) {
	blocks, err := readBlocks(r)
	if err != nil {
		return nil, fmt.Errorf("error reading VTT file: %w", err)
	}

	doc := NewDocument(FormatVTT)
	for i, b := range blocks {
		first := strings.TrimSpace(b.lines[0])
		if i == 0 && strings.HasPrefix(first, "WEBVTT") {
			continue
		}
		if strings.HasPrefix(first, "NOTE") ||
			strings.HasPrefix(first, "STYLE") ||
			strings.HasPrefix(first, "REGION") {
			continue
		}

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

func encodeVTT(w *bufio.Writer, entries []Entry) error {
	// VTT header
	w.WriteString("WEBVTT\n\n")

	for i, entry := range entries {
		// optional cue identifier
		w.WriteString(strconv.Itoa(i + 1))
		w.WriteString("\n")

		// timestamps: 00:00:00.000 --> 00:00:00.000
		w.WriteString(formatVTTTime(entry.StartTime))
		w.WriteString(" --> ")
		w.WriteString(formatVTTTime(entry.EndTime))
		w.WriteString("\n")

		if entry.Text != "" {
			w.WriteString(stripBlankLines(entry.Text))
			w.WriteString("\n")
		}
		w.WriteString("\n")
	}
	return w.Flush()
}
