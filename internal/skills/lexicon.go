// Package skills extracts ordered, deduplicated skill terms from free text.
package skills

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reasm-dev/reasm/internal/analysis"
)

const (
	maxListItemWords = 4
	maxListItemLen   = 40
)

var (
	skillListRe  = regexp.MustCompile(`(?im)^[ \t]*(?:technical |key |core )?(?:skills|technologies|tech stack|stack|requirements|tools|competencies)[ \t]*[:\-][ \t]*(.+)$`)
	listSplitRe  = regexp.MustCompile(`[,;|•]`)
	listPrefixRe = regexp.MustCompile(`(?i)^(?:and|or|&)\s+`)
)

// Extractor derives skill terms from resume or job-description text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]analysis.SkillTerm, error)
}

// Lexicon finds catalog skills on word boundaries plus the items of "Skills:" style lists.
// Terms come back in order of first appearance, spelled as in the text.
type Lexicon struct {
	catalog []Entry
	norm    *Normalizer
}

// NewLexicon builds a lexicon extractor. A nil catalog uses the built-in one.
func NewLexicon(catalog []Entry) *Lexicon {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Lexicon{catalog: catalog, norm: NewNormalizer(catalog)}
}

// Normalizer exposes the alias index backing the lexicon.
func (l *Lexicon) Normalizer() *Normalizer {
	return l.norm
}

type span struct {
	start, end int
	key        string
	catalog    bool
}

// Extract returns the skills mentioned in text.
func (l *Lexicon) Extract(ctx context.Context, text string) ([]analysis.SkillTerm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &analysis.EmptyInputError{Field: "text", Message: "nothing to extract skills from"}
	}

	lowered := asciiLower(text)
	var found []span
	for _, entry := range l.catalog {
		key := strings.ToLower(entry.Name)
		for _, alias := range foldedSpellings(entry) {
			for _, start := range wordIndexes(lowered, strings.ToLower(alias)) {
				found = append(found, span{start: start, end: start + len(alias), key: key, catalog: true})
			}
		}
		for _, alias := range entry.Exact {
			for _, start := range wordIndexes(text, alias) {
				found = append(found, span{start: start, end: start + len(alias), key: key, catalog: true})
			}
		}
	}

	accepted := leftmostLongest(found)
	accepted = append(accepted, l.listItems(text, accepted)...)
	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	terms := make([]analysis.SkillTerm, 0, len(accepted))
	seen := make(map[string]bool, len(accepted))
	for _, s := range accepted {
		if seen[s.key] {
			continue
		}
		term, ok := analysis.NewSkillTerm(text[s.start:s.end])
		if !ok {
			continue
		}
		seen[s.key] = true
		terms = append(terms, term)
	}

	return terms, nil
}

// listItems returns items of skill lists that no catalog match already covers.
func (l *Lexicon) listItems(text string, covered []span) []span {
	var items []span
	for _, m := range skillListRe.FindAllStringSubmatchIndex(text, -1) {
		body := text[m[2]:m[3]]
		offset := m[2]
		for _, bounds := range splitBounds(body) {
			start, end := offset+bounds[0], offset+bounds[1]
			raw := text[start:end]
			trimmed := strings.TrimSpace(raw)
			start += strings.Index(raw, trimmed)
			if prefix := listPrefixRe.FindString(trimmed); prefix != "" {
				start += len(prefix)
				trimmed = trimmed[len(prefix):]
			}
			trimmed = strings.TrimRight(trimmed, ". ")
			end = start + len(trimmed)

			if !plausibleItem(trimmed) || overlaps(covered, start, end) {
				continue
			}
			items = append(items, span{start: start, end: end, key: l.norm.Key(trimmed)})
		}
	}
	return items
}

// foldedSpellings lists the spellings matched case-insensitively. A name that is
// also an exact spelling only matches with its own case.
func foldedSpellings(e Entry) []string {
	out := append([]string(nil), e.Aliases...)
	for _, exact := range e.Exact {
		if exact == e.Name {
			return out
		}
	}
	return append(out, e.Name)
}

func splitBounds(s string) [][2]int {
	var out [][2]int
	prev := 0
	for _, sep := range listSplitRe.FindAllStringIndex(s, -1) {
		out = append(out, [2]int{prev, sep[0]})
		prev = sep[1]
	}
	return append(out, [2]int{prev, len(s)})
}

func plausibleItem(item string) bool {
	if item == "" || len(item) > maxListItemLen {
		return false
	}
	if n := len(strings.Fields(item)); n == 0 || n > maxListItemWords {
		return false
	}
	return strings.IndexFunc(item, unicode.IsLetter) >= 0
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if s.start < end && start < s.end {
			return true
		}
	}
	return false
}

// leftmostLongest keeps non-overlapping spans, preferring earlier and then longer ones.
func leftmostLongest(spans []span) []span {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end-spans[i].start > spans[j].end-spans[j].start
	})

	out := make([]span, 0, len(spans))
	lastEnd := -1
	for _, s := range spans {
		if s.start < lastEnd {
			continue
		}
		out = append(out, s)
		lastEnd = s.end
	}
	return out
}

// wordIndexes returns every offset of needle in haystack that sits on word boundaries.
func wordIndexes(haystack, needle string) []int {
	if needle == "" {
		return nil
	}
	var out []int
	for from := 0; from < len(haystack); {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			out = append(out, start)
		}
		from = start + 1
	}
	return out
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

// asciiLower lowers ASCII letters only so byte offsets stay aligned with the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
