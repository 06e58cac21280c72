// Package config loads the cueline YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/timeline"
)

const (
	defaultTranscribeProvider = "gemini"
	defaultTranslateProvider  = "gemini"
	defaultBatchSize          = 50
	defaultConcurrency        = 3
	defaultAutosaveKeep       = 50
)

// Config mirrors config.yaml.
type Config struct {
	Editor struct {
		Tolerance     float64 `yaml:"tolerance"`
		HistoryLimit  int     `yaml:"history_limit"`
		SplitText     string  `yaml:"split_text"`
		AutoScroll    bool    `yaml:"auto_scroll"`
		SeekOnClick   bool    `yaml:"seek_on_click"`
		MaxLineLength int     `yaml:"max_line_length"`
	} `yaml:"editor"`

	Providers struct {
		Transcribe struct {
			Provider    string `yaml:"provider"`
			Model       string `yaml:"model"`
			Concurrency int    `yaml:"concurrency"`
		} `yaml:"transcribe"`
		Translate struct {
			Provider    string `yaml:"provider"`
			Model       string `yaml:"model"`
			BatchSize   int    `yaml:"batch_size"`
			Concurrency int    `yaml:"concurrency"`
		} `yaml:"translate"`
	} `yaml:"providers"`

	Autosave struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
		Keep    int    `yaml:"keep"`
	} `yaml:"autosave"`

	path string
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}

	c.Editor.Tolerance = timeline.Tolerance
	c.Editor.HistoryLimit = timeline.DefaultHistoryLimit
	c.Editor.SplitText = "proportional"
	c.Editor.AutoScroll = true
	c.Editor.SeekOnClick = true

	c.Providers.Transcribe.Provider = defaultTranscribeProvider
	c.Providers.Transcribe.Concurrency = defaultConcurrency
	c.Providers.Translate.Provider = defaultTranslateProvider
	c.Providers.Translate.BatchSize = defaultBatchSize
	c.Providers.Translate.Concurrency = defaultConcurrency

	c.Autosave.Enabled = true
	c.Autosave.Keep = defaultAutosaveKeep

	return c
}

// DefaultPath returns the per-user config location,
// e.g. ~/.config/cueline/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "cueline", "config.yaml"), nil
}

// Load reads path over the defaults. An empty path means DefaultPath. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg.normalize()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) normalize() {
	if c.Editor.Tolerance <= 0 {
		c.Editor.Tolerance = timeline.Tolerance
	}
	if c.Editor.HistoryLimit < 0 {
		c.Editor.HistoryLimit = 0
	}
	c.Editor.SplitText = strings.TrimSpace(strings.ToLower(c.Editor.SplitText))

	c.Providers.Transcribe.Provider = strings.TrimSpace(strings.ToLower(c.Providers.Transcribe.Provider))
	if c.Providers.Transcribe.Provider == "" {
		c.Providers.Transcribe.Provider = defaultTranscribeProvider
	}
	if c.Providers.Transcribe.Concurrency <= 0 {
		c.Providers.Transcribe.Concurrency = defaultConcurrency
	}

	c.Providers.Translate.Provider = strings.TrimSpace(strings.ToLower(c.Providers.Translate.Provider))
	if c.Providers.Translate.Provider == "" {
		c.Providers.Translate.Provider = defaultTranslateProvider
	}
	if c.Providers.Translate.BatchSize <= 0 {
		c.Providers.Translate.BatchSize = defaultBatchSize
	}
	if c.Providers.Translate.Concurrency <= 0 {
		c.Providers.Translate.Concurrency = defaultConcurrency
	}

	if c.Autosave.Keep <= 0 {
		c.Autosave.Keep = defaultAutosaveKeep
	}
	if c.Autosave.Path != "" {
		c.Autosave.Path = filepath.Clean(c.Autosave.Path)
	}
}

func (c *Config) validate() error {
	if _, ok := timeline.ParseSplitPolicy(c.Editor.SplitText); !ok {
		return fmt.Errorf(
			"editor.split_text %q must be one of proportional, duplicate, empty-second",
			c.Editor.SplitText,
		)
	}
	if c.Editor.MaxLineLength < 0 {
		return fmt.Errorf("editor.max_line_length must not be negative")
	}
	return nil
}

// SessionOptions converts the editor section into session options.
func (c *Config) SessionOptions() editor.Options {
	policy, _ := timeline.ParseSplitPolicy(c.Editor.SplitText)
	return editor.Options{
		Tolerance:     c.Editor.Tolerance,
		HistoryLimit:  c.Editor.HistoryLimit,
		SplitPolicy:   policy,
		AutoScroll:    c.Editor.AutoScroll,
		SeekOnClick:   c.Editor.SeekOnClick,
		MaxLineLength: c.Editor.MaxLineLength,
	}
}

// AutosavePath returns the autosave database location, defaulting to
// the user cache dir.
func (c *Config) AutosavePath() (string, error) {
	if c.Autosave.Path != "" {
		return c.Autosave.Path, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache dir: %w", err)
	}
	return filepath.Join(dir, "cueline", "autosave.db"), nil
}
