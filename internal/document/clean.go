// Package document turns uploaded resume documents into clean text.
package document

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	inlineSpaceRe  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankRunRe     = regexp.MustCompile(`\n{3,}`)
	bulletPrefixRe = regexp.MustCompile(`^[•·▪◦●■\-\*]\s*`)
)

// CleanText normalises line endings, repairs invalid UTF-8, collapses inline
// whitespace and keeps at most one blank line between paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	content = strings.ReplaceAll(content, "\x00", "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaceRe.ReplaceAllString(line, " "))
	}

	result := strings.Join(lines, "\n")
	result = blankRunRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// Lines returns the non-empty lines of cleaned text with bullet markers removed.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(bulletPrefixRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// CleanLength is the rune count of the cleaned text.
func CleanLength(text string) int {
	return utf8.RuneCountInString(CleanText(text))
}
