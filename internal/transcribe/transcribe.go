package transcribe

import (
	"context"
	"fmt"
	"sort"

	"github.com/mgpai22/cueline/internal/subtitle"
	"github.com/mgpai22/cueline/internal/timeline"
)

// one recognized phrase, seconds relative to the transcribed file
type Draft struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]Draft, error)
}

// transcription service provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// transcription options
type Options struct {
	Language           string // source language of the audio
	TranscriptLanguage string // output language, "native" keeps the source
	Model              string
	Prompt             string
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Offset shifts drafts by seconds, as when a clip started at that point of
// the source.
func Offset(drafts []Draft, by float64) []Draft {
	out := make([]Draft, len(drafts))
	for i, d := range drafts {
		out[i] = Draft{Start: d.Start + by, End: d.End + by, Text: d.Text}
	}
	return out
}

// clamp keeps drafts inside [0, limit), dropping ones entirely outside
func clamp(drafts []Draft, limit float64) []Draft {
	out := drafts[:0:0]
	for _, d := range drafts {
		if d.Start < 0 {
			d.Start = 0
		}
		if limit > 0 && d.End > limit {
			d.End = limit
		}
		if d.End <= d.Start {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ToSegments orders drafts by start and shapes them into id-less segments
// ready for import.
func ToSegments(drafts []Draft, g *subtitle.Generator) []timeline.Segment {
	if g == nil {
		g = subtitle.NewDefaultGenerator()
	}
	sorted := make([]Draft, len(drafts))
	copy(sorted, drafts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	raw := make([]timeline.Segment, len(sorted))
	for i, d := range sorted {
		raw[i] = timeline.Segment{Start: d.Start, End: d.End, Text: d.Text}
	}
	return g.Generate(raw)
}
