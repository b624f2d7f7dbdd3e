package document

import (
	"regexp"
	"strings"
)

const evidenceSnippetLen = 120

// mentionPattern matches term as a whole word. Letters, digits, '+' and '#'
// count as word characters so C does not match inside C++ or C#.
func mentionPattern(term string) (*regexp.Regexp, bool) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, false
	}
	re, err := regexp.Compile(`(?i)(?:^|[^\pL\pN+#])` + regexp.QuoteMeta(term) + `(?:$|[^\pL\pN+#])`)
	if err != nil {
		return nil, false
	}
	return re, true
}

// Mentions reports whether text names term as a whole word.
func Mentions(text, term string) bool {
	re, ok := mentionPattern(term)
	return ok && re.MatchString(text)
}

// FindMention returns the first resume line mentioning term as a whole word.
func FindMention(text, term string) (string, bool) {
	re, ok := mentionPattern(term)
	if !ok {
		return "", false
	}

	for _, line := range Lines(text) {
		if re.MatchString(line) {
			return Excerpt(line), true
		}
	}
	return "", false
}

// Excerpt shortens a resume line for quoting in a justification.
func Excerpt(line string) string {
	line = strings.Join(strings.Fields(line), " ")
	runes := []rune(line)
	if len(runes) <= evidenceSnippetLen {
		return line
	}
	return strings.TrimSpace(string(runes[:evidenceSnippetLen])) + "..."
}
