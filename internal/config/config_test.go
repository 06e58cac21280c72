package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/timeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(editor.DefaultOptions(), cfg.SessionOptions()); diff != "" {
		t.Errorf("default session options mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
editor:
  history_limit: 20
  split_text: Duplicate
  auto_scroll: false
  max_line_length: 42
providers:
  translate:
    provider: " Anthropic "
    batch_size: 10
autosave:
  path: /tmp/x/../cueline.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	opts := cfg.SessionOptions()
	want := editor.Options{
		Tolerance:     timeline.Tolerance,
		HistoryLimit:  20,
		SplitPolicy:   timeline.SplitDuplicate,
		AutoScroll:    false,
		SeekOnClick:   true,
		MaxLineLength: 42,
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("session options mismatch (-want +got):\n%s", diff)
	}

	if cfg.Providers.Translate.Provider != "anthropic" {
		t.Errorf("provider not normalized: %q", cfg.Providers.Translate.Provider)
	}
	if cfg.Providers.Translate.BatchSize != 10 {
		t.Errorf("expected batch size 10, got %d", cfg.Providers.Translate.BatchSize)
	}
	if cfg.Providers.Translate.Concurrency != defaultConcurrency {
		t.Errorf("expected default concurrency, got %d", cfg.Providers.Translate.Concurrency)
	}
	if got, _ := cfg.AutosavePath(); got != "/tmp/cueline.db" {
		t.Errorf("expected cleaned autosave path, got %q", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown split policy", "editor:\n  split_text: halves\n"},
		{"negative line length", "editor:\n  max_line_length: -1\n"},
		{"malformed yaml", "editor: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
