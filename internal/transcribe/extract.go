package transcribe

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var fenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = fenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// keys models tend to wrap a transcript array in, tried before any other key
var wrapperKeys = []string{"segments", "transcript", "data", "results"}

// extractTranscriptSegments finds the first JSON value in text that holds a
// usable list of drafts. Models often add prose around the JSON or wrap the
// list in an object, so every '[' and '{' is tried as a starting point.
func extractTranscriptSegments(text string) ([]Draft, error) {
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if drafts, ok := findDrafts(raw, 0); ok {
			return drafts, nil
		}
	}
	return nil, errors.New("no transcript segments found in response")
}

func findDrafts(raw json.RawMessage, depth int) ([]Draft, bool) {
	if depth > 4 {
		return nil, false
	}

	var drafts []Draft
	if err := json.Unmarshal(raw, &drafts); err == nil {
		return drafts, validateSegments(drafts)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, key := range wrapperKeys {
		if v, ok := obj[key]; ok {
			if drafts, ok := findDrafts(v, depth+1); ok {
				return drafts, true
			}
		}
	}
	for key, v := range obj {
		if isWrapperKey(key) {
			continue
		}
		if drafts, ok := findDrafts(v, depth+1); ok {
			return drafts, true
		}
	}
	return nil, false
}

func isWrapperKey(key string) bool {
	for _, k := range wrapperKeys {
		if k == key {
			return true
		}
	}
	return false
}

// a list is usable when at least one draft carries any data
func validateSegments(drafts []Draft) bool {
	for _, d := range drafts {
		if d.Text != "" || d.Start != 0 || d.End != 0 {
			return true
		}
	}
	return false
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
