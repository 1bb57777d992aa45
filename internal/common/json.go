package common

import (
	"fmt"
	"strings"
)

// StripCodeFences removes markdown code-fence markers the model may wrap
// around JSON output.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```JSON", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ExtractJSONSpan returns the text from the first open to the last
// closing delimiter, after stripping code fences.
func ExtractJSONSpan(text string, open, closing byte) (string, error) {
	text = StripCodeFences(text)
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closing)
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON %c...%c span found", ErrMalformedOutput, open, closing)
	}
	return text[start : end+1], nil
}
