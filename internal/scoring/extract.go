// internal/scoring/extract.go
package scoring

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseOutcome classifies a model response.
type ParseOutcome string

const (
	ParseValid   ParseOutcome = "valid-json"
	ParseInvalid ParseOutcome = "invalid-json"
	ParseEmpty   ParseOutcome = "empty"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ExtractJSONObject returns the first well-formed JSON object in text.
// Prose and code fences around the object are ignored. A response that is
// valid JSON but not an object is invalid.
func ExtractJSONObject(text string) (string, ParseOutcome) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ParseEmpty
	}

	if gjson.Valid(trimmed) {
		if gjson.Parse(trimmed).IsObject() {
			return trimmed, ParseValid
		}
		return "", ParseInvalid
	}

	cleaned := thinkBlock.ReplaceAllString(trimmed, "")
	if idx := strings.Index(cleaned, "<think>"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	if strings.TrimSpace(cleaned) == "" {
		return "", ParseEmpty
	}

	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		if end := matchingBrace(cleaned, start); end > start {
			candidate := cleaned[start : end+1]
			if gjson.Valid(candidate) {
				return candidate, ParseValid
			}
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ParseInvalid
}

// matchingBrace returns the index of the brace closing the one at start,
// skipping braces inside JSON strings, or -1.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
