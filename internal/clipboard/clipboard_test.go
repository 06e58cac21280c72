package clipboard

import (
	"testing"

	"github.com/mgpai22/cueline/internal/timeline"
)

func TestCopyJoinsTexts(t *testing.T) {
	cb := &Memory{}
	err := Copy(cb, []timeline.Segment{
		{ID: "a", Start: 0, End: 1, Text: "first"},
		{ID: "b", Start: 1, End: 2, Text: "second\nline"},
	})
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	got, _ := cb.ReadAll()
	if want := "first\n\nsecond\nline"; got != want {
		t.Errorf("clipboard = %q, want %q", got, want)
	}
}

func TestPasteNormalizes(t *testing.T) {
	cb := &Memory{}
	_ = cb.WriteAll("\r\nhello\r\nworld\r\n\r\n")
	got, err := Paste(cb)
	if err != nil {
		t.Fatalf("Paste returned error: %v", err)
	}
	if got != "hello\nworld" {
		t.Errorf("Paste = %q", got)
	}
}

func TestDefaultIsUsable(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil")
	}
}
