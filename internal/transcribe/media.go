package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mgpai22/cueline/internal/audio"
	"github.com/mgpai22/cueline/internal/pool"
)

// files longer than this are transcribed in pieces
const DefaultChunkSeconds = 600

// TranscribeChunks transcribes chunks concurrently and returns their drafts
// in chunk order, shifted to source time.
func TranscribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []audio.Chunk,
	concurrency int,
) ([]Draft, error) {
	parts, err := pool.Map(ctx, chunks, concurrency, func(ctx context.Context, c audio.Chunk) ([]Draft, error) {
		drafts, err := t.Transcribe(ctx, c.Path)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		return Offset(clamp(drafts, c.End-c.Start), c.Start), nil
	})
	if err != nil {
		return nil, err
	}

	var all []Draft
	for _, p := range parts {
		all = append(all, p...)
	}
	return all, nil
}

// TranscribeRegion clips [start, end) out of mediaPath and transcribes only
// that part. Returned drafts are in source time and stay inside the region.
func TranscribeRegion(
	ctx context.Context,
	t Transcriber,
	mediaPath, workDir string,
	start, end float64,
) ([]Draft, error) {
	clip := filepath.Join(workDir, fmt.Sprintf("region_%d_%d%s", int(start*1000), int(end*1000), audio.DefaultOptions().Ext()))
	if err := audio.ClipRegion(ctx, mediaPath, clip, start, end, audio.DefaultOptions()); err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(clip) }()

	drafts, err := t.Transcribe(ctx, clip)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe region: %w", err)
	}
	return Offset(clamp(drafts, end-start), start), nil
}

// TranscribeFile prepares mediaPath for upload and transcribes it, in
// chunks when it is longer than chunkSeconds.
func TranscribeFile(
	ctx context.Context,
	t Transcriber,
	mediaPath, workDir string,
	chunkSeconds float64,
	concurrency int,
) ([]Draft, error) {
	prepared, err := audio.Prepare(ctx, mediaPath, workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare audio: %w", err)
	}
	defer func() { _ = os.Remove(prepared) }()

	if chunkSeconds <= 0 {
		chunkSeconds = DefaultChunkSeconds
	}
	total, err := audio.Duration(ctx, prepared)
	if err != nil {
		return nil, err
	}
	if total <= chunkSeconds {
		return t.Transcribe(ctx, prepared)
	}

	chunks, err := audio.ChunkAudio(ctx, prepared, chunkSeconds, filepath.Join(workDir, "chunks"), concurrency)
	if err != nil {
		return nil, err
	}
	defer func() { _ = audio.Cleanup(chunks) }()

	return TranscribeChunks(ctx, t, chunks, concurrency)
}
