package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON extracts the first valid JSON object from a string that may contain extra text.
// This handles cases where LLMs add explanations before/after the JSON despite instructions.
func extractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	// Try to find JSON object boundaries
	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let parser fail
	}

	// Find the matching closing brace
	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		// Handle string escaping
		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}

		// Track if we're inside a string
		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					// Found complete JSON object, return it
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// DecodeJSON extracts the first JSON object from text and unmarshals it into v.
// Any failure is reported as ErrMalformed.
func DecodeJSON(text string, v any) error {
	clean := extractJSON(text)
	if clean == "" {
		return fmt.Errorf("%w: empty response", ErrMalformed)
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
