// Package validate inspects subtitle segments for structural problems and
// repairs overlaps on request. Nothing here mutates its input.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/cueline/internal/timeline"
)

// Severity classifies an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code identifies the kind of issue.
type Code string

const (
	CodeOverlap         Code = "overlap"
	CodeEmptyText       Code = "emptyText"
	CodeInvalidDuration Code = "invalidDuration"
	CodeNegativeStart   Code = "negativeStart"
	CodeLineTooLong     Code = "lineTooLong"
)

// Issue is a single finding for one segment.
type Issue struct {
	SegmentID string   `json:"segmentId"`
	Severity  Severity `json:"severity"`
	Code      Code     `json:"code"`
	Message   string   `json:"message"`
}

// Options tunes the checks.
type Options struct {
	// Tolerance is the allowed overlap in seconds.
	Tolerance float64
	// MaxLineLength enables the line length warning when > 0.
	MaxLineLength int
}

// DefaultOptions returns the standard tolerance with no line length limit.
func DefaultOptions() Options {
	return Options{Tolerance: timeline.Tolerance}
}

// Overlaps reports whether curr starts before prev ends, beyond tol.
func Overlaps(prev, curr timeline.Segment, tol float64) bool {
	return curr.Start < prev.End-tol
}

// Validate checks seg on its own and against the segment before it.
func Validate(seg timeline.Segment, prev *timeline.Segment, opts Options) []Issue {
	var issues []Issue
	add := func(sev Severity, code Code, msg string) {
		issues = append(issues, Issue{
			SegmentID: seg.ID,
			Severity:  sev,
			Code:      code,
			Message:   msg,
		})
	}

	if seg.Start < 0 {
		add(SeverityError, CodeNegativeStart,
			fmt.Sprintf("starts at %.2fs, before the beginning of the media", seg.Start))
	}
	if seg.End <= seg.Start {
		add(SeverityError, CodeInvalidDuration,
			fmt.Sprintf("ends at %.2fs, not after its start %.2fs", seg.End, seg.Start))
	}
	if prev != nil && Overlaps(*prev, seg, opts.Tolerance) {
		add(SeverityError, CodeOverlap,
			fmt.Sprintf("overlaps previous segment by %.2fs", prev.End-seg.Start))
	}
	if strings.TrimSpace(seg.Text) == "" {
		add(SeverityWarning, CodeEmptyText, "text is empty")
	}
	if opts.MaxLineLength > 0 {
		for i, line := range strings.Split(seg.Text, "\n") {
			if n := utf8.RuneCountInString(line); n > opts.MaxLineLength {
				add(SeverityWarning, CodeLineTooLong,
					fmt.Sprintf("line %d has %d characters, limit is %d", i+1, n, opts.MaxLineLength))
			}
		}
	}
	return issues
}

// ValidateAll runs Validate over segs in sorted order.
func ValidateAll(segs []timeline.Segment, opts Options) []Issue {
	sorted := timeline.Clone(segs)
	timeline.Sort(sorted)

	issues := []Issue{}
	for i := range sorted {
		var prev *timeline.Segment
		if i > 0 {
			prev = &sorted[i-1]
		}
		issues = append(issues, Validate(sorted[i], prev, opts)...)
	}
	return issues
}

// HasOverlaps reports whether any adjacent pair overlaps beyond tol.
func HasOverlaps(segs []timeline.Segment, tol float64) bool {
	sorted := timeline.Clone(segs)
	timeline.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if Overlaps(sorted[i-1], sorted[i], tol) {
			return true
		}
	}
	return false
}

// Counts tallies issues by severity.
func Counts(issues []Issue) (errs, warnings int) {
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}

// ByID groups issues by segment id.
func ByID(issues []Issue) map[string][]Issue {
	out := make(map[string][]Issue)
	for _, is := range issues {
		out[is.SegmentID] = append(out[is.SegmentID], is)
	}
	return out
}
