package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var leadingTagsRegex = regexp.MustCompile(`^(\{[^}]*\})+`)

const (
	defaultASSTitle    = "cueline"
	defaultASSFont     = "Arial"
	defaultASSFontSize = 20
)

// everything of an ASS file except the dialogue lines
type assLayout struct {
	header     []string
	formatLine string
	columns    []string
	textCol    int
	startCol   int
	endCol     int
	trailer    []string
}

func defaultASSLayout() *assLayout {
	header := []string{
		"[Script Info]",
		"Title: " + defaultASSTitle,
		"ScriptType: v4.00+",
		"Collisions: Normal",
		"PlayDepth: 0",
		"",
		"[V4+ Styles]",
		"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding",
		fmt.Sprintf(
			"Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1",
			defaultASSFont, defaultASSFontSize,
		),
		"",
		"[Events]",
	}
	l := &assLayout{header: header}
	l.setFormat("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")
	return l
}

func (l *assLayout) setFormat(line string) error {
	l.formatLine = line
	formatPart := strings.TrimPrefix(strings.TrimSpace(line), "Format:")
	columns := strings.Split(formatPart, ",")
	for i, col := range columns {
		columns[i] = strings.TrimSpace(col)
	}
	l.columns = columns
	l.textCol, l.startCol, l.endCol = -1, -1, -1
	for i, col := range columns {
		switch strings.ToLower(col) {
		case "text":
			l.textCol = i
		case "start":
			l.startCol = i
		case "end":
			l.endCol = i
		}
	}
	if l.textCol == -1 {
		return fmt.Errorf("ASS file missing Text column in Format line")
	}
	if l.startCol == -1 || l.endCol == -1 {
		return fmt.Errorf("ASS file missing Start or End column in Format line")
	}
	return nil
}

// default column values for dialogue lines that did not come from the file
func (l *assLayout) defaultFields() []string {
	fields := make([]string, len(l.columns))
	for i, col := range l.columns {
		switch strings.ToLower(col) {
		case "layer", "marginl", "marginr", "marginv":
			fields[i] = "0"
		case "style":
			fields[i] = "Default"
		case "marked":
			fields[i] = "Marked=0"
		}
	}
	return fields
}

func parseASS(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	layout := &assLayout{textCol: -1}
	doc := NewDocument(FormatASS)
	inEventsSection := false
	lineNum := 0

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "[") &&
			strings.HasSuffix(trimmedLine, "]") {
			sectionName := strings.ToLower(
				strings.TrimSuffix(strings.TrimPrefix(trimmedLine, "["), "]"),
			)
			if inEventsSection {
				layout.trailer = append(layout.trailer, line)
				continue
			}
			layout.header = append(layout.header, line)
			inEventsSection = sectionName == "events"
			continue
		}

		if !inEventsSection {
			if layout.formatLine == "" {
				layout.header = append(layout.header, line)
			} else {
				layout.trailer = append(layout.trailer, line)
			}
			continue
		}

		if strings.HasPrefix(trimmedLine, "Format:") {
			if err := layout.setFormat(line); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(trimmedLine, "Dialogue:") {
			entry, err := layout.parseDialogue(trimmedLine)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to parse Dialogue at line %d: %w",
					lineNum,
					err,
				)
			}
			doc.Entries = append(doc.Entries, entry)
			continue
		}

		// comments and other event lines stay after the dialogues
		layout.trailer = append(layout.trailer, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ASS file: %w", err)
	}
	if layout.formatLine == "" {
		return nil, fmt.Errorf(
			"ASS file missing Format line in [Events] section",
		)
	}

	doc.ass = layout
	return doc, nil
}

func (l *assLayout) parseDialogue(line string) (Entry, error) {
	if len(l.columns) == 0 {
		return Entry{}, fmt.Errorf("format columns not parsed yet")
	}
	content := strings.TrimSpace(strings.TrimPrefix(line, "Dialogue:"))

	parts := splitASSFields(content, len(l.columns))
	if len(parts) < len(l.columns) {
		return Entry{}, fmt.Errorf(
			"expected %d fields, got %d",
			len(l.columns),
			len(parts),
		)
	}

	start, err := parseASSTimestamp(parts[l.startCol])
	if err != nil {
		return Entry{}, err
	}
	end, err := parseASSTimestamp(parts[l.endCol])
	if err != nil {
		return Entry{}, err
	}

	tags, text := extractLeadingTags(parts[l.textCol])
	return Entry{
		StartTime:   start,
		EndTime:     end,
		Text:        unescapeASSText(text),
		fields:      parts,
		leadingTags: tags,
	}, nil
}

// splits on the first n-1 commas; the last field keeps any further commas
func splitASSFields(content string, numFields int) []string {
	if numFields <= 0 {
		return nil
	}
	return strings.SplitN(content, ",", numFields)
}

func extractLeadingTags(text string) (string, string) {
	match := leadingTagsRegex.FindString(text)
	if match == "" {
		return "", text
	}
	return match, text[len(match):]
}

func unescapeASSText(text string) string {
	text = strings.ReplaceAll(text, "\\N", "\n")
	return strings.ReplaceAll(text, "\\n", "\n")
}

func escapeASSText(text string) string {
	return strings.ReplaceAll(text, "\n", "\\N")
}

func (l *assLayout) dialogueLine(e Entry) string {
	fields := make([]string, len(l.columns))
	if len(e.fields) == len(l.columns) {
		copy(fields, e.fields)
	} else {
		copy(fields, l.defaultFields())
	}
	fields[l.startCol] = formatASSTime(e.StartTime)
	fields[l.endCol] = formatASSTime(e.EndTime)
	fields[l.textCol] = e.leadingTags + escapeASSText(e.Text)
	return "Dialogue: " + strings.Join(fields, ",")
}

func encodeASS(w *bufio.Writer, layout *assLayout, entries []Entry) error {
	for _, line := range layout.header {
		w.WriteString(line)
		w.WriteString("\n")
	}
	w.WriteString(layout.formatLine)
	w.WriteString("\n")

	for _, e := range entries {
		w.WriteString(layout.dialogueLine(e))
		w.WriteString("\n")
	}
	for _, line := range layout.trailer {
		w.WriteString(line)
		w.WriteString("\n")
	}
	return w.Flush()
}
