package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/cueline/internal/ffmpeg"
)

// output encoding for converted audio
type Options struct {
	Format     string // mp3, aac, flac or wav
	SampleRate int    // Hz
	Channels   int    // 1 = mono, 2 = stereo
	Bitrate    string // lossy formats only, e.g. "64k"
}

// small mono mp3, good enough for speech recognition uploads
func DefaultOptions() Options {
	return Options{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// Ext returns the file extension matching opts.Format.
func (o Options) Ext() string {
	switch o.Format {
	case "aac", "flac", "wav":
		return "." + o.Format
	default:
		return ".mp3"
	}
}

func (o Options) kwargs() ffmpeg.KwArgs {
	kw := ffmpeg.KwArgs{"vn": ""}
	if o.SampleRate > 0 {
		kw["ar"] = o.SampleRate
	}
	if o.Channels > 0 {
		kw["ac"] = o.Channels
	}

	switch o.Format {
	case "aac":
		kw["acodec"] = "aac"
	case "flac":
		kw["acodec"] = "flac"
	case "wav":
		kw["acodec"] = "pcm_s16le"
	default:
		kw["acodec"] = "libmp3lame"
	}
	if o.Bitrate != "" && (o.Format == "mp3" || o.Format == "aac" || o.Format == "") {
		kw["b:a"] = o.Bitrate
	}
	return kw
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration probes the media length in seconds.
func Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out.Bytes())
}

func parseProbe(data []byte) (float64, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return seconds, nil
}

// Convert re-encodes the audio track of inputPath into outputPath.
func Convert(ctx context.Context, inputPath, outputPath string, opts Options) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	stream := ffmpeg.Input(inputPath).Output(outputPath, opts.kwargs())
	if err := run(ctx, stream, outputPath); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return nil
}

// ExtractAudio pulls the audio track out of a video file.
func ExtractAudio(ctx context.Context, videoPath, outputPath string, opts Options) error {
	if !IsVideoFile(videoPath) {
		return fmt.Errorf("not a video file: %s", videoPath)
	}
	return Convert(ctx, videoPath, outputPath, opts)
}

func clipStream(inputPath, outputPath string, start, end float64, opts Options) *ffmpeg.Stream {
	kw := opts.kwargs()
	kw["t"] = strconv.FormatFloat(end-start, 'f', 3, 64)
	return ffmpeg.Input(inputPath, ffmpeg.KwArgs{"ss": strconv.FormatFloat(start, 'f', 3, 64)}).
		Output(outputPath, kw)
}

// ClipRegion encodes [start, end) of inputPath into outputPath. Timestamps in
// the clip are relative to start.
func ClipRegion(ctx context.Context, inputPath, outputPath string, start, end float64, opts Options) error {
	if start < 0 || end <= start {
		return fmt.Errorf("invalid region [%.2f, %.2f)", start, end)
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err := run(ctx, clipStream(inputPath, outputPath, start, end, opts), outputPath); err != nil {
		return fmt.Errorf("failed to clip region: %w", err)
	}
	return nil
}

// Prepare converts any audio or video file into a compressed upload copy
// inside workDir and returns its path.
func Prepare(ctx context.Context, mediaPath, workDir string) (string, error) {
	if !IsMediaFile(mediaPath) {
		return "", fmt.Errorf("unsupported media file: %s", mediaPath)
	}
	opts := DefaultOptions()
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	out := filepath.Join(workDir, base+"_prepared"+opts.Ext())
	if err := Convert(ctx, mediaPath, out, opts); err != nil {
		return "", err
	}
	return out, nil
}

func run(ctx context.Context, stream *ffmpeg.Stream, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	args := stream.OverWriteOutput().GetArgs()
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".aac":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".wma":  true,
	".aiff": true,
	".opus": true,
}

func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

func IsAudioFile(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}
