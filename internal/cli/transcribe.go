package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/cueline/internal/audio"
	"github.com/mgpai22/cueline/internal/subtitle"
	"github.com/mgpai22/cueline/internal/transcribe"
	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Recognize speech and import it as subtitle segments",
	Long: `Transcribe an audio or video file and import the recognized phrases as
segments.

With --into the segments are added to an existing subtitle file; otherwise
a new file is created next to the media. --start and --end restrict
recognition to a region of the media, and --replace removes the segments
already in that region first.

Long files are split into chunks and transcribed in parallel.

Examples:
  cueline transcribe video.mp4
  cueline transcribe podcast.mp3 -f vtt --provider openai
  cueline transcribe video.mp4 --into video.srt --start 65 --end 80 --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		String("into", "", "Subtitle file to import into (created if missing)")
	transcribeCmd.Flags().
		Float64("start", 0, "Region start in seconds")
	transcribeCmd.Flags().
		Float64("end", 0, "Region end in seconds")
	transcribeCmd.Flags().
		Bool("replace", false, "Delete existing segments in the region before importing")
	transcribeCmd.Flags().
		StringP("format", "f", "srt", "Subtitle format for a new file (srt, vtt, ass)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY env var)")
	transcribeCmd.Flags().
		String("provider", "", "Transcription provider (gemini, openai); defaults to the config value")
	transcribeCmd.Flags().
		String("model", "", "Model to use for transcription (provider-specific)")
	transcribeCmd.Flags().
		Int("concurrency", 0, "Number of parallel transcription workers")
	transcribeCmd.Flags().
		Float64("chunk", transcribe.DefaultChunkSeconds, "Chunk length in seconds for long files")
	transcribeCmd.Flags().
		String("transcript-language", "native", "Output language for transcript (e.g., 'english', or 'native' for original language)")
	transcribeCmd.Flags().
		String("prompt", "", "Extra instructions or vocabulary for the model")
}

// whisper can only translate into English
func isValidOpenAITranscriptLanguage(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "native", "english", "en":
		return true
	}
	return false
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()

	into, _ := cmd.Flags().GetString("into")
	start, _ := cmd.Flags().GetFloat64("start")
	end, _ := cmd.Flags().GetFloat64("end")
	replace, _ := cmd.Flags().GetBool("replace")
	formatStr, _ := cmd.Flags().GetString("format")
	apiKey, _ := cmd.Flags().GetString("api-key")
	providerStr, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	chunk, _ := cmd.Flags().GetFloat64("chunk")
	transcriptLang, _ := cmd.Flags().GetString("transcript-language")
	prompt, _ := cmd.Flags().GetString("prompt")
	outputPath, _ := cmd.Flags().GetString("output")
	language, _ := cmd.Flags().GetString("language")

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	start, end, region, err := timeRange(start, end,
		cmd.Flags().Changed("start"), cmd.Flags().Changed("end"))
	if err != nil {
		return err
	}
	if region && end == 0 {
		return fmt.Errorf("--end is required with --start")
	}
	if replace && !region {
		return fmt.Errorf("--replace needs a region (--start and --end)")
	}

	if providerStr == "" {
		providerStr = cfg.Providers.Transcribe.Provider
	}
	if model == "" {
		model = cfg.Providers.Transcribe.Model
	}
	if concurrency <= 0 {
		concurrency = cfg.Providers.Transcribe.Concurrency
	}
	provider := transcribe.Provider(providerStr)
	if provider == transcribe.ProviderOpenAI && !isValidOpenAITranscriptLanguage(transcriptLang) {
		return fmt.Errorf("openai can only transcribe into the native language or english, got %q", transcriptLang)
	}

	apiKey, err = resolveAPIKey(providerStr, apiKey)
	if err != nil {
		return err
	}

	if into == "" {
		format, err := subtitle.ParseFormat(formatStr)
		if err != nil {
			return fmt.Errorf("unsupported format %q: use srt, vtt, or ass", formatStr)
		}
		into = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + subtitle.GetExtensionForFormat(format)
	}
	if outputPath == "" {
		outputPath = into
	}

	var d *document
	if _, statErr := os.Stat(into); statErr == nil {
		d, err = openDocument(into)
	} else {
		d, err = createDocument(into)
	}
	if err != nil {
		return err
	}

	logger.Infow("Starting transcription",
		"input", mediaPath,
		"into", into,
		"output", outputPath,
		"provider", providerStr,
		"region", region,
		"start", start,
		"end", end,
	)

	transcriber, err := transcribe.Factory(ctx, provider, apiKey, transcribe.Options{
		Language:           language,
		TranscriptLanguage: transcriptLang,
		Model:              model,
		Prompt:             prompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "cueline-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var drafts []transcribe.Draft
	if region {
		drafts, err = transcribe.TranscribeRegion(ctx, transcriber, mediaPath, tempDir, start, end)
	} else {
		drafts, err = transcribe.TranscribeFile(ctx, transcriber, mediaPath, tempDir, chunk, concurrency)
	}
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	logger.Infow("Transcription complete", "drafts", len(drafts))

	c := d.session.Controller
	if replace {
		var stale []string
		for _, seg := range d.session.Segments() {
			if overlaps(seg, start, end) {
				stale = append(stale, seg.ID)
			}
		}
		removed := c.Delete(stale...)
		logger.Infow("Removed segments in region", "count", removed)
	}

	added, err := c.ImportSegments(transcribe.ToSegments(drafts, subtitle.NewDefaultGenerator()))
	if err != nil {
		return fmt.Errorf("failed to import segments: %w", err)
	}

	if err := d.write(outputPath); err != nil {
		return err
	}

	issues := d.session.Frame().Issues
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles written: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Imported: %d\n", len(added))
	fmt.Fprintf(cmd.OutOrStdout(), "  Segments: %d\n", len(d.session.Segments()))
	if len(issues) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  Issues: %d (run 'cueline check %s')\n", len(issues), outputPath)
	}
	return nil
}
