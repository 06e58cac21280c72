package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerLevels(t *testing.T) {
	if NewLogger(false).Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("non-verbose logger should not log at debug level")
	}
	if !NewLogger(true).Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose logger should log at debug level")
	}
}

func TestWithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core)).Named("editor").With("file", "a.srt")

	l.Infow("split segment", "id", "x")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "editor" {
		t.Errorf("expected logger name editor, got %q", e.LoggerName)
	}
	fields := e.ContextMap()
	if fields["file"] != "a.srt" || fields["id"] != "x" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Infow("ignored")
	l.Sync()
}
