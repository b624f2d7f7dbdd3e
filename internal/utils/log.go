package utils

import "strings"

// TruncateForLog shortens s to limit runes, appending an ellipsis when
// truncated. Prompts and model answers pass through it before being logged.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
