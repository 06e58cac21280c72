// Package clipboard moves segment text to and from the system clipboard.
package clipboard

import (
	"errors"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/mgpai22/cueline/internal/timeline"
)

var ErrUnavailable = errors.New("system clipboard unavailable")

type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// system clipboard via xclip/xsel/wl-clipboard, pbcopy or the Windows API
type System struct{}

func (System) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnavailable
	}
	return clipboard.ReadAll()
}

func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

// process-local clipboard, used when no system one is available
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Default returns the system clipboard, or a Memory one when the platform
// has none.
func Default() Clipboard {
	if clipboard.Unsupported {
		return &Memory{}
	}
	return System{}
}

// Copy writes the texts of segs, separated by blank lines.
func Copy(cb Clipboard, segs []timeline.Segment) error {
	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
	}
	return cb.WriteAll(strings.Join(texts, "\n\n"))
}

// Paste reads the clipboard with line endings normalized and surrounding
// blank lines trimmed.
func Paste(cb Clipboard) (string, error) {
	text, err := cb.ReadAll()
	if err != nil {
		return "", err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Trim(text, "\n"), nil
}
