package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Open parses the subtitle file at path, picking the format from its
// extension.
func Open(path string) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, err := ParseFormat(ext)
	if err != nil {
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return Parse(file, format)
}

// Parse reads a document in format from r.
func Parse(r io.Reader, format Format) (*Document, error) {
	switch format {
	case FormatSRT:
		return parseSRT(r)
	case FormatVTT:
		return parseVTT(r)
	case FormatASS:
		return parseASS(r)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", format)
	}
}

// Encode writes the document to w in d.Format. Writing a non-ASS document
// as ASS uses a default script header.
func (d *Document) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	switch d.Format {
	case FormatSRT:
		return encodeSRT(bw, d.Entries)
	case FormatVTT:
		return encodeVTT(bw, d.Entries)
	case FormatASS:
		layout := d.ass
		if layout == nil {
			layout = defaultASSLayout()
		}
		return encodeASS(bw, layout, d.Entries)
	default:
		return fmt.Errorf("unsupported format: %s", d.Format)
	}
}

// Write encodes the document to path, creating parent directories.
func (d *Document) Write(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}
	if err := d.Encode(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
