package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/subtitle"
	"github.com/mgpai22/cueline/internal/timeline"
)

// document pairs a subtitle file with the session editing it
type document struct {
	path    string
	doc     *subtitle.Document
	session *editor.Session
}

func sessionOptions() editor.Options {
	if cfg == nil {
		return editor.DefaultOptions()
	}
	return cfg.SessionOptions()
}

// parseDocument reads path without loading it into a session.
func parseDocument(path string) (*subtitle.Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file not found: %s", path)
	}
	doc, err := subtitle.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	return doc, nil
}

// openDocument parses path and loads its entries into a new session.
func openDocument(path string) (*document, error) {
	doc, err := parseDocument(path)
	if err != nil {
		return nil, err
	}
	return newSession(path, doc)
}

// createDocument starts an empty document whose format follows the
// extension of path.
func createDocument(path string) (*document, error) {
	format, err := subtitle.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("unsupported subtitle format %q: use .srt, .vtt, .ass, or .ssa", filepath.Ext(path))
	}
	return newSession(path, subtitle.NewDocument(format))
}

func newSession(path string, doc *subtitle.Document) (*document, error) {
	session, err := editor.NewSession(doc.Segments(), nil, sessionOptions(), logger)
	var timing *timeline.InvalidTimingError
	if errors.As(err, &timing) {
		return nil, fmt.Errorf(
			"failed to load %s: cue #%d has invalid timing %s --> %s (run cueline check): %w",
			path, cueNumber(doc, timing.ID), clockTime(timing.Start), clockTime(timing.End), err,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return &document{path: path, doc: doc, session: session}, nil
}

// cueNumber is the 1-based position of id in the file, or 0 if absent.
func cueNumber(doc *subtitle.Document, id string) int {
	for i, e := range doc.Entries {
		if e.ID == id {
			return i + 1
		}
	}
	return 0
}

// saveTo returns a function writing segments to path in the document's
// format.
func (d *document) saveTo(path string) func(segs []timeline.Segment) error {
	return func(segs []timeline.Segment) error {
		d.doc.SetSegments(segs)
		return d.doc.Write(path)
	}
}

func (d *document) write(path string) error {
	if err := d.saveTo(path)(d.session.Segments()); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

var apiKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// resolveAPIKey prefers the flag value and falls back to the provider's
// environment variable.
func resolveAPIKey(provider, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	envVar, ok := apiKeyEnv[provider]
	if !ok {
		return "", fmt.Errorf("unsupported provider: %s", provider)
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf(
		"API key is required: use --api-key flag or set %s environment variable",
		envVar,
	)
}

// timeRange reads --start/--end. ok is false when neither was given.
func timeRange(start, end float64, startSet, endSet bool) (float64, float64, bool, error) {
	if !startSet && !endSet {
		return 0, 0, false, nil
	}
	if start < 0 {
		return 0, 0, false, fmt.Errorf("start must not be negative, got %v", start)
	}
	if !endSet {
		return start, 0, true, nil
	}
	if end <= start {
		return 0, 0, false, fmt.Errorf("end (%v) must be after start (%v)", end, start)
	}
	return start, end, true, nil
}

// overlaps reports whether seg intersects [start, end). end 0 means open.
func overlaps(seg timeline.Segment, start, end float64) bool {
	if seg.End <= start {
		return false
	}
	return end <= 0 || seg.Start < end
}

func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
