package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRegex = regexp.MustCompile("```(?:json)?\\s*")

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = fenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// fixInvalidEscapes doubles backslashes that do not start a JSON escape,
// so ASS hard breaks like \N survive decoding as literal text.
func fixInvalidEscapes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			sb.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		switch next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
			sb.WriteByte('\\')
		default:
			sb.WriteString("\\\\")
		}
		sb.WriteByte(next)
		i++
	}
	return sb.String()
}

var resultWrapperKeys = []string{"results", "translations", "data", "items"}

func extractTranslationResults(text string) ([]Result, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func tryExtractResults(raw json.RawMessage) ([]Result, bool) {
	if results, ok := decodeResults(raw); ok {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}
	for _, key := range resultWrapperKeys {
		if field, ok := wrapper[key]; ok {
			if results, ok := decodeResults(field); ok {
				return results, true
			}
		}
	}
	for _, field := range wrapper {
		if results, ok := decodeResults(field); ok {
			return results, true
		}
	}
	return nil, false
}

// a list counts only when every entry carries an id and one has text
func decodeResults(raw json.RawMessage) ([]Result, bool) {
	var results []Result
	if err := json.Unmarshal(raw, &results); err != nil || len(results) == 0 {
		return nil, false
	}
	hasText := false
	for _, r := range results {
		if r.ID == "" {
			return nil, false
		}
		if r.Text != "" {
			hasText = true
		}
	}
	return results, hasText
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
