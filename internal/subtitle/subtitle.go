// Package subtitle reads and writes SRT, WebVTT and ASS/SSA files and
// converts their entries to and from timeline segments.
package subtitle

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/cueline/internal/timeline"
)

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// represents single subtitle entry
type Entry struct {
	ID        string
	StartTime time.Duration
	EndTime   time.Duration
	Text      string

	// ASS only: every column of the Dialogue line (the Text column is
	// rebuilt on write) and the override tags leading the text.
	fields      []string
	leadingTags string
}

// LeadingTags returns ASS override tags such as {\pos(10,20)} that were
// stripped from the front of the text.
func (e Entry) LeadingTags() string {
	return e.leadingTags
}

// parsed subtitle file. ASS documents keep their header and styles so a
// rewrite changes only the dialogue lines.
type Document struct {
	Format  Format
	Entries []Entry

	ass *assLayout
}

// NewDocument returns an empty document in format.
func NewDocument(format Format) *Document {
	return &Document{Format: format, Entries: []Entry{}}
}

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format: %s", name)
	}
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatSRT
	}
	return f
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	default:
		return ".srt"
	}
}

// Seconds converts a timestamp to seconds at millisecond precision.
func Seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

// Duration converts seconds to a timestamp rounded to the millisecond.
func Duration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}

// Segments returns the entries as timeline segments. Entries without an id
// are given one, so later SetSegments calls can find them again.
func (d *Document) Segments() []timeline.Segment {
	segs := make([]timeline.Segment, len(d.Entries))
	for i := range d.Entries {
		if d.Entries[i].ID == "" {
			d.Entries[i].ID = timeline.NewID()
		}
		segs[i] = ToSegment(d.Entries[i])
	}
	return segs
}

// SetSegments replaces the entries with segs. Entries whose id survives keep
// their ASS columns and tags; new segments borrow them from the entry before.
func (d *Document) SetSegments(segs []timeline.Segment) {
	old := make(map[string]Entry, len(d.Entries))
	for _, e := range d.Entries {
		old[e.ID] = e
	}

	var prev *Entry
	if len(d.Entries) > 0 {
		first := d.Entries[0]
		prev = &first
	}

	entries := make([]Entry, 0, len(segs))
	for _, s := range segs {
		e := FromSegment(s)
		if o, ok := old[s.ID]; ok {
			e.fields = o.fields
			e.leadingTags = o.leadingTags
		} else if prev != nil {
			e.fields = prev.fields
			e.leadingTags = prev.leadingTags
		}
		entries = append(entries, e)
		prev = &entries[len(entries)-1]
	}
	d.Entries = entries
}

// ToSegment converts one entry.
func ToSegment(e Entry) timeline.Segment {
	return timeline.Segment{
		ID:    e.ID,
		Start: Seconds(e.StartTime),
		End:   Seconds(e.EndTime),
		Text:  e.Text,
	}
}

// FromSegment converts one segment.
func FromSegment(s timeline.Segment) Entry {
	return Entry{
		ID:        s.ID,
		StartTime: Duration(s.Start),
		EndTime:   Duration(s.End),
		Text:      s.Text,
	}
}

// ToSegments converts entries without touching their ids.
func ToSegments(entries []Entry) []timeline.Segment {
	segs := make([]timeline.Segment, len(entries))
	for i, e := range entries {
		segs[i] = ToSegment(e)
	}
	return segs
}

// FromSegments converts segments into plain entries.
func FromSegments(segs []timeline.Segment) []Entry {
	entries := make([]Entry, len(segs))
	for i, s := range segs {
		entries[i] = FromSegment(s)
	}
	return entries
}
