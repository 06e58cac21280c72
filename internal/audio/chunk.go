package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/cueline/internal/pool"
)

// one piece of a longer recording; Start/End are offsets into the source
type Chunk struct {
	Path  string
	Index int
	Start float64
	End   float64
}

// plan cuts [0, total) into pieces of size seconds; the last may be shorter
func plan(total, size float64, dir, base, ext string) []Chunk {
	var chunks []Chunk
	for i := 0; ; i++ {
		start := float64(i) * size
		if start >= total {
			break
		}
		end := start + size
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{
			Path:  filepath.Join(dir, fmt.Sprintf("%s_chunk_%03d%s", base, i, ext)),
			Index: i,
			Start: start,
			End:   end,
		})
	}
	return chunks
}

// ChunkAudio splits audioPath into size-second pieces written to outputDir.
func ChunkAudio(ctx context.Context, audioPath string, size float64, outputDir string, concurrency int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %v", size)
	}
	total, err := Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get audio duration: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(filepath.Base(audioPath), ext)
	opts := DefaultOptions()
	chunks := plan(total, size, outputDir, base, opts.Ext())

	return pool.Map(ctx, chunks, concurrency, func(ctx context.Context, c Chunk) (Chunk, error) {
		if err := ClipRegion(ctx, audioPath, c.Path, c.Start, c.End, opts); err != nil {
			return Chunk{}, fmt.Errorf("failed to create chunk %d: %w", c.Index, err)
		}
		return c, nil
	})
}

// Cleanup removes chunk files, ignoring ones already gone.
func Cleanup(chunks []Chunk) error {
	var lastErr error
	for _, c := range chunks {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
