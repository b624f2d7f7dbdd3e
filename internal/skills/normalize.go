package skills

import (
	"strings"

	"github.com/reasm-dev/reasm/internal/analysis"
)

// Normalizer maps skill spellings to canonical catalog names.
type Normalizer struct {
	canonical map[string]string
}

// NewNormalizer indexes every alias of the catalog, case-insensitively.
func NewNormalizer(catalog []Entry) *Normalizer {
	n := &Normalizer{canonical: make(map[string]string)}
	for _, e := range catalog {
		n.canonical[strings.ToLower(e.Name)] = e.Name
		for _, alias := range e.Aliases {
			n.canonical[strings.ToLower(alias)] = e.Name
		}
		for _, alias := range e.Exact {
			n.canonical[strings.ToLower(alias)] = e.Name
		}
	}
	return n
}

// Canonical returns the catalog name for raw, or raw trimmed when unknown.
func (n *Normalizer) Canonical(raw string) string {
	term, ok := analysis.NewSkillTerm(raw)
	if !ok {
		return ""
	}
	if name, found := n.canonical[term.Key()]; found {
		return name
	}
	return string(term)
}

// Key is the identity used for deduplication: the lowered canonical name.
func (n *Normalizer) Key(raw string) string {
	return strings.ToLower(n.Canonical(raw))
}

// Dedupe drops terms that normalise to an already-seen skill, keeping the first spelling.
func (n *Normalizer) Dedupe(terms []analysis.SkillTerm) []analysis.SkillTerm {
	out := make([]analysis.SkillTerm, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range analysis.DedupeTerms(terms) {
		key := n.Key(string(t))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
