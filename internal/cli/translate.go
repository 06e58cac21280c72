package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/cueline/internal/editor"
	"github.com/mgpai22/cueline/internal/translate"
	"github.com/spf13/cobra"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate subtitles to another language using AI",
	Long: `Translate an existing subtitle file to another language using AI.

Supports SRT, VTT, and ASS/SSA formats. For ASS files, all styling and
formatting is preserved - only the dialogue text is translated.

The --overlay flag creates bilingual subtitles with the translated text
first, followed by the original text on the next line. --start and --end
translate only the segments overlapping that time range.

Examples:
  cueline translate video.srt --target-language japanese
  cueline translate video.ass --target-language ja --overlay
  cueline translate video.vtt -l english -t spanish --provider anthropic
  cueline translate video.srt -t german --start 120 --end 300`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		Bool("overlay", false, "Overlay translated text with original (bilingual subtitles)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		Bool("model-override", false, "Allow any custom model, bypassing provider model validation")
	translateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic); defaults to the config value")
	translateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", 0, "Number of subtitle entries per API request")
	translateCmd.Flags().
		Float64("start", 0, "Only translate segments after this time in seconds")
	translateCmd.Flags().
		Float64("end", 0, "Only translate segments before this time in seconds")

	_ = translateCmd.MarkFlagRequired("target-language")
}

// overlayText puts the translation above the original
func overlayText(translated, original string) string {
	return translated + "\n" + original
}

func defaultTranslatePath(input, targetLang string, overlay bool) string {
	suffix := "." + targetLang
	if overlay {
		suffix += ".overlay"
	}
	return withSuffix(input, suffix)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	modelOverride, _ := cmd.Flags().GetBool("model-override")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	start, _ := cmd.Flags().GetFloat64("start")
	end, _ := cmd.Flags().GetFloat64("end")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}

	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" &&
		strings.EqualFold(
			strings.TrimSpace(inputLang),
			strings.TrimSpace(targetLang),
		) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}

	start, end, ranged, err := timeRange(start, end,
		cmd.Flags().Changed("start"), cmd.Flags().Changed("end"))
	if err != nil {
		return err
	}

	if providerStr == "" {
		providerStr = cfg.Providers.Translate.Provider
	}
	if model == "" {
		model = cfg.Providers.Translate.Model
	}
	if concurrency == 0 {
		concurrency = cfg.Providers.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Providers.Translate.BatchSize
	}
	provider := translate.Provider(providerStr)

	apiKey, err = resolveAPIKey(providerStr, apiKey)
	if err != nil {
		return err
	}

	if !modelOverride {
		if err := translate.ValidateModel(provider, model); err != nil {
			return fmt.Errorf("%w (use --model-override to bypass)", err)
		}
	}

	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	if outputPath == "" {
		outputPath = defaultTranslatePath(subtitlePath, targetLang, overlay)
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"target_language", targetLang,
		"input_language", inputLang,
		"overlay", overlay,
		"provider", providerStr,
		"model", model,
	)

	d, err := openDocument(subtitlePath)
	if err != nil {
		return err
	}

	segs := d.session.Segments()
	originals := make(map[string]string, len(segs))
	var items []translate.Item
	for _, seg := range segs {
		if ranged && !overlaps(seg, start, end) {
			continue
		}
		originals[seg.ID] = seg.Text
		items = append(items, translate.Item{ID: seg.ID, Text: seg.Text})
	}
	if len(items) == 0 {
		return fmt.Errorf("no segments to translate")
	}

	logger.Infow("Parsed subtitle file",
		"segments", len(segs),
		"selected", len(items),
		"format", d.doc.Format,
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
		Concurrency:    concurrency,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating subtitles",
		"items", len(items),
		"concurrency", concurrency,
	)

	results, err := translator.Translate(ctx, items)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	logger.Infow("Translation complete",
		"results", len(results),
	)

	updates := make([]editor.TextResult, len(results))
	for i, r := range results {
		text := r.Text
		if overlay {
			text = overlayText(r.Text, originals[r.ID])
		}
		updates[i] = editor.TextResult{ID: r.ID, Text: text}
	}
	updated, err := d.session.Controller.ApplyTexts(updates, editor.MatchByID)
	if err != nil {
		return fmt.Errorf("failed to apply translations: %w", err)
	}

	logger.Infow("Writing output file")
	if err := d.write(outputPath); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles translated successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", updated)
	fmt.Fprintf(cmd.OutOrStdout(), "  Target language: %s\n", targetLang)
	if overlay {
		fmt.Fprintf(cmd.OutOrStdout(), "  Mode: bilingual overlay\n")
	}

	return nil
}
