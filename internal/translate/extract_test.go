package translate

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestExtractTranslationResultsCount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name: "plain valid array",
			input: `[
				{"id": "a", "text": "こんにちは"},
				{"id": "b", "text": "さようなら"}
			]`,
			wantCount: 2,
		},
		{
			name: "preamble with valid array",
			input: `Here is the translation:
			[
				{"id": "a", "text": "Bonjour"},
				{"id": "b", "text": "Au revoir"}
			]`,
			wantCount: 2,
		},
		{
			name: "valid array with trailing text",
			input: `[
				{"id": "a", "text": "Hola"}
			]
			I hope this helps!`,
			wantCount: 1,
		},
		{
			name:      "code fenced JSON",
			input:     `[{"id": "a", "text": "翻訳されたテキスト"}]`,
			wantCount: 1,
		},
		{
			name: "wrapper object with results key",
			input: `{"results": [
				{"id": "a", "text": "Translated"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with translations key",
			input: `{"translations": [
				{"id": "a", "text": "Übersetzt"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with data key",
			input: `{"data": [
				{"id": "a", "text": "Переведено"}
			]}`,
			wantCount: 1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   `This is just plain text.`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `[{"id": "a", "text": "incomplete"`,
			wantErr: true,
		},
		{
			name:    "array with empty text",
			input:   `[{"id": "a", "text": ""}]`,
			wantErr: true,
		},
		{
			name: "complex preamble",
			input: `I've translated the subtitles for you. Here is the JSON:

			[
				{"id": "a", "text": "First translation"},
				{"id": "b", "text": "Second translation"}
			]

			Let me know if you need anything else!`,
			wantCount: 2,
		},
		{
			name: "ASS hard break in text",
			input: `[
				{"id": "a", "text": "That's why they are fuming...\Nthese Babu and Pappu."}
			]`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := extractTranslationResults(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("got %d results, want %d", len(results), tt.wantCount)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON",
			input: `[{"id": "a", "text": "hello"}]`,
			want:  `[{"id": "a", "text": "hello"}]`,
		},
		{
			name:  "json code fence",
			input: "```json\n[{\"id\": \"a\", \"text\": \"hello\"}]\n```",
			want:  `[{"id": "a", "text": "hello"}]`,
		},
		{
			name:  "plain code fence",
			input: "```\n[{\"id\": \"a\", \"text\": \"hello\"}]\n```",
			want:  `[{"id": "a", "text": "hello"}]`,
		},
		{
			name:  "with leading/trailing whitespace",
			input: "  \n\n```json\n[{\"id\": \"a\"}]\n```\n\n  ",
			want:  `[{"id": "a"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"empty array", `[]`, false},
		{"null", `null`, false},
		{"result with text", `[{"id": "a", "text": "hello"}]`, true},
		{"result with empty text", `[{"id": "a", "text": ""}]`, false},
		{"multiple results one with text", `[{"id": "a", "text": ""}, {"id": "b", "text": "valid"}]`, true},
		{"missing id", `[{"id": "a", "text": "x"}, {"text": "y"}]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := decodeResults(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("decodeResults() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	prompt := BuildPrompt(Options{TargetLanguage: "Spanish"}, []Item{{ID: "a", Text: "Hello"}})

	if strings.Contains(prompt, "English") || strings.Contains(prompt, "from ") {
		t.Error("prompt should not contain input language when not specified")
	}
	if !strings.Contains(prompt, "to Spanish") {
		t.Error("prompt should contain target language")
	}
}
