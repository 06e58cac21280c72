package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/mgpai22/cueline/internal/pool"
)

// single text to translate, keyed by segment id
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// translated text for the item with the same id
type Result struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(ctx context.Context, items []Item) ([]Result, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const DefaultBatchSize = 50

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request
	Concurrency    int // batches in flight
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

var knownModels = map[Provider][]string{
	ProviderGemini: {
		"gemini-3-pro-preview", "gemini-3-flash-preview",
		"gemini-2.5-pro", "gemini-2.5-flash", "gemini-2.5-flash-lite",
	},
	ProviderOpenAI: {
		"o1", "o3-mini", "o1-pro", "o3",
		"gpt-5", "gpt-5-nano", "gpt-5-mini", "gpt-5-pro",
		"gpt-5.1", "gpt-5.2", "gpt-5.2-pro",
	},
}

// ValidateModel rejects model names a provider is not known to serve. An
// empty model means the provider default. Anthropic models are checked by
// family prefix only.
func ValidateModel(provider Provider, model string) error {
	if model == "" {
		return nil
	}
	if provider == ProviderAnthropic {
		if !strings.HasPrefix(model, "claude-") {
			return fmt.Errorf("unsupported Anthropic model %q: expected a claude-* model", model)
		}
		return nil
	}
	known, ok := knownModels[provider]
	if !ok {
		return fmt.Errorf("unsupported translation provider: %s", provider)
	}
	if !slices.Contains(known, model) {
		return fmt.Errorf("unsupported %s model %q: valid models are %s", provider, model, strings.Join(known, ", "))
	}
	return nil
}

// sends one prompt and returns the raw reply text
type completeFunc func(ctx context.Context, prompt string) (string, error)

// translateItems splits items into batches, runs up to opts.Concurrency of
// them at once and returns results in input order.
func translateItems(ctx context.Context, items []Item, opts Options, complete completeFunc) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}

	batches := pool.Batch(items, opts.batchSize())
	parts, err := pool.Map(ctx, batches, opts.Concurrency, func(ctx context.Context, batch []Item) ([]Result, error) {
		return translateBatch(ctx, batch, opts, complete)
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(items))
	for _, p := range parts {
		results = append(results, p...)
	}
	return results, nil
}

func translateBatch(ctx context.Context, batch []Item, opts Options, complete completeFunc) ([]Result, error) {
	text, err := complete(ctx, BuildPrompt(opts, batch))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	text = cleanJSONResponse(text)
	if text == "" {
		return nil, fmt.Errorf("empty translation response")
	}

	results, err := extractTranslationResults(text)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(text, 200),
		)
	}
	return matchBatch(batch, results)
}

// matchBatch checks that results answer exactly the ids of batch and
// returns them in batch order
func matchBatch(batch []Item, results []Result) ([]Result, error) {
	if len(results) != len(batch) {
		return nil, fmt.Errorf("expected %d results, got %d", len(batch), len(results))
	}

	byID := make(map[string]Result, len(results))
	for _, r := range results {
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate result id %q", r.ID)
		}
		byID[r.ID] = r
	}

	ordered := make([]Result, len(batch))
	for i, item := range batch {
		r, ok := byID[item.ID]
		if !ok {
			return nil, fmt.Errorf("missing result for id %q", item.ID)
		}
		ordered[i] = r
	}
	return ordered, nil
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(opts Options, items []Item) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		fmt.Fprintf(&sb,
			"Translate the following %s subtitle texts to %s.\n\n",
			opts.InputLanguage,
			opts.TargetLanguage,
		)
	} else {
		fmt.Fprintf(&sb,
			"Translate the following subtitle texts to %s.\n\n",
			opts.TargetLanguage,
		)
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the text content, preserving the meaning.\n")
	sb.WriteString("2. Keep any formatting tags (like {\\pos}, {\\an}, {\\i1}) unchanged.\n")
	sb.WriteString("3. Preserve line breaks in the same positions.\n")
	sb.WriteString("4. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("5. Each object must have 'id' and 'text' fields.\n")
	sb.WriteString("6. Copy every 'id' value exactly as given; return one object per input object.\n")
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
