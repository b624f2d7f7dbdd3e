package analysis

import "strings"

// NewSkillTerm trims surrounding whitespace and collapses inner runs of spaces.
// The second return value is false when nothing is left.
func NewSkillTerm(raw string) (SkillTerm, bool) {
	cleaned := strings.Join(strings.Fields(raw), " ")
	cleaned = strings.Trim(cleaned, ".,;:")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", false
	}
	return SkillTerm(cleaned), true
}

// DedupeTerms drops empty terms and case-insensitive duplicates, keeping first-seen order.
func DedupeTerms(terms []SkillTerm) []SkillTerm {
	out := make([]SkillTerm, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		normalized, ok := NewSkillTerm(string(term))
		if !ok {
			continue
		}
		key := normalized.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, normalized)
	}
	return out
}

// TermsFromStrings converts and dedupes raw strings.
func TermsFromStrings(raw []string) []SkillTerm {
	terms := make([]SkillTerm, 0, len(raw))
	for _, r := range raw {
		terms = append(terms, SkillTerm(r))
	}
	return DedupeTerms(terms)
}

// Strings returns the plain string form of the terms.
func Strings(terms []SkillTerm) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = string(t)
	}
	return out
}
