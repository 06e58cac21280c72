package audio

import (
	"context"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptionsKwargs(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantCodec  string
		wantRate   bool
		wantExtStr string
	}{
		{"mp3", DefaultOptions(), "libmp3lame", true, ".mp3"},
		{"aac", Options{Format: "aac", Bitrate: "128k"}, "aac", true, ".aac"},
		{"flac", Options{Format: "flac", Bitrate: "128k"}, "flac", false, ".flac"},
		{"wav", Options{Format: "wav"}, "pcm_s16le", false, ".wav"},
		{"unknown", Options{Format: "ogg"}, "libmp3lame", false, ".mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kw := tt.opts.kwargs()
			if kw["acodec"] != tt.wantCodec {
				t.Errorf("acodec = %v, want %s", kw["acodec"], tt.wantCodec)
			}
			if _, ok := kw["b:a"]; ok != tt.wantRate {
				t.Errorf("bitrate present = %v, want %v", ok, tt.wantRate)
			}
			if _, ok := kw["vn"]; !ok {
				t.Error("video stream should be dropped")
			}
			if got := tt.opts.Ext(); got != tt.wantExtStr {
				t.Errorf("Ext() = %s, want %s", got, tt.wantExtStr)
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	got, err := parseProbe([]byte(`{"format": {"duration": "123.456000"}}`))
	if err != nil {
		t.Fatalf("parseProbe returned error: %v", err)
	}
	if got != 123.456 {
		t.Errorf("expected 123.456, got %v", got)
	}

	if _, err := parseProbe([]byte(`{"format": {}}`)); err == nil {
		t.Error("expected error for missing duration")
	}
	if _, err := parseProbe([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestPlan(t *testing.T) {
	got := plan(25, 10, "/tmp/work", "talk", ".mp3")
	want := []Chunk{
		{Path: filepath.Join("/tmp/work", "talk_chunk_000.mp3"), Index: 0, Start: 0, End: 10},
		{Path: filepath.Join("/tmp/work", "talk_chunk_001.mp3"), Index: 1, Start: 10, End: 20},
		{Path: filepath.Join("/tmp/work", "talk_chunk_002.mp3"), Index: 2, Start: 20, End: 25},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	if got := plan(20, 10, "d", "b", ".mp3"); len(got) != 2 {
		t.Errorf("exact multiple should give 2 chunks, got %d", len(got))
	}
	if got := plan(0, 10, "d", "b", ".mp3"); len(got) != 0 {
		t.Errorf("empty input should give no chunks, got %d", len(got))
	}
}

func TestClipStreamArgs(t *testing.T) {
	args := clipStream("in.wav", "out.mp3", 12.5, 15, DefaultOptions()).GetArgs()

	ss := slices.Index(args, "-ss")
	in := slices.Index(args, "-i")
	if ss < 0 || ss+1 >= len(args) || args[ss+1] != "12.500" {
		t.Fatalf("expected -ss 12.500 in %v", args)
	}
	if in < ss {
		t.Errorf("seek should come before the input for fast seeking: %v", args)
	}
	dur := slices.Index(args, "-t")
	if dur < 0 || args[dur+1] != "2.500" {
		t.Errorf("expected -t 2.500 in %v", args)
	}
	if args[len(args)-1] != "out.mp3" {
		t.Errorf("output should be last, got %v", args)
	}
}

func TestClipRegionRejectsInvalidRegion(t *testing.T) {
	ctx := context.Background()
	if err := ClipRegion(ctx, "in.wav", "out.mp3", 5, 5, DefaultOptions()); err == nil {
		t.Error("expected error for empty region")
	}
	if err := ClipRegion(ctx, "in.wav", "out.mp3", -1, 5, DefaultOptions()); err == nil {
		t.Error("expected error for negative start")
	}
}

func TestPrepareRejectsNonMedia(t *testing.T) {
	if _, err := Prepare(context.Background(), "notes.txt", t.TempDir()); err == nil {
		t.Error("expected error for non-media file")
	}
}

func TestMediaDetection(t *testing.T) {
	tests := []struct {
		path         string
		video, audio bool
	}{
		{"movie.MP4", true, false},
		{"clip.webm", true, false},
		{"talk.mp3", false, true},
		{"voice.opus", false, true},
		{"subs.srt", false, false},
	}
	for _, tt := range tests {
		if IsVideoFile(tt.path) != tt.video || IsAudioFile(tt.path) != tt.audio {
			t.Errorf("%s: video=%v audio=%v", tt.path, IsVideoFile(tt.path), IsAudioFile(tt.path))
		}
		if IsMediaFile(tt.path) != (tt.video || tt.audio) {
			t.Errorf("%s: IsMediaFile mismatch", tt.path)
		}
	}
}
