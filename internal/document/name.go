package document

import (
	"regexp"
	"strings"
	"unicode"
)

const nameSearchLines = 6

var (
	labelledNameRe = regexp.MustCompile(`(?i)^(?:full\s+)?name\s*[:\-]\s*(.+)$`)
	headerWords    = map[string]bool{
		"resume": true, "curriculum": true, "vitae": true, "cv": true, "profile": true,
		"summary": true, "experience": true, "education": true, "skills": true, "contact": true,
		"objective": true, "engineer": true, "developer": true, "manager": true,
	}
)

// CandidateName returns the candidate's name from the resume header, or "" when
// no line looks like a personal name.
func CandidateName(text string) string {
	lines := Lines(text)
	if len(lines) > nameSearchLines {
		lines = lines[:nameSearchLines]
	}

	for _, line := range lines {
		if m := labelledNameRe.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); looksLikeName(name) {
				return name
			}
		}
	}

	for _, line := range lines {
		candidate := line
		// "Jane Smith | jane@example.com | +1 555"
		if idx := strings.IndexAny(candidate, "|,•"); idx > 0 {
			candidate = strings.TrimSpace(candidate[:idx])
		}
		if looksLikeName(candidate) {
			return candidate
		}
	}

	return ""
}

func looksLikeName(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}

	for _, w := range words {
		if headerWords[strings.ToLower(strings.Trim(w, ".,"))] {
			return false
		}
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes {
			if !unicode.IsLetter(r) && r != '-' && r != '\'' && r != '.' {
				return false
			}
		}
	}
	return true
}
