package completion

import (
	"bytes"
	"strings"
)

// extractJSON returns the outermost JSON object in text, tolerating code
// fences and prose around it. Returns text unchanged when no object is found,
// so validation reports the original answer.
func extractJSON(text string) []byte {
	t := strings.TrimSpace(text)
	start := strings.IndexByte(t, '{')
	end := strings.LastIndexByte(t, '}')
	if start < 0 || end < start {
		return []byte(t)
	}
	return bytes.TrimSpace([]byte(t[start : end+1]))
}
