// Package scoring turns per-skill verdicts into the final analysis.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/reasm-dev/reasm/internal/analysis"
)

// NameNotFound replaces missing or placeholder candidate names.
const NameNotFound = "Candidate (Name not found)"

const (
	MinTips = 2
	MaxTips = 4
)

var placeholderNames = map[string]bool{
	"alex johnson": true,
	"john doe":     true,
	"jane doe":     true,
	"john smith":   true,
	"candidate":    true,
	"your name":    true,
	"first last":   true,
	"name":         true,
	"n/a":          true,
	"na":           true,
	"unknown":      true,
	"none":         true,
	"null":         true,
}

// GenericTips pad an analysis whose gaps do not support enough specific tips.
var GenericTips = []string{
	"Quantify the impact of your most relevant roles (scale, latency, revenue or users) so reviewers can judge depth.",
	"Mirror the job description's wording for skills you already have so screening tools and recruiters recognise them.",
}

// Weights are the score contributions of each status, Missing counting zero.
type Weights struct {
	Matched float64
	Partial float64
}

// DefaultWeights count a Partial as half a Matched.
var DefaultWeights = Weights{Matched: 1, Partial: 0.5}

// Aggregator builds analyses. The zero value uses DefaultWeights.
type Aggregator struct {
	Weights Weights
}

// Score is the weighted share of supported skills, scaled to [0,100] and rounded to two decimals.
func (a Aggregator) Score(matches []analysis.SkillMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	w := a.weights()

	var sum float64
	for _, m := range matches {
		switch m.Status {
		case analysis.StatusMatched:
			sum += w.Matched
		case analysis.StatusPartial:
			sum += w.Partial
		case analysis.StatusMissing:
		}
	}

	score := 100 * sum / float64(len(matches))
	return math.Round(score*100) / 100
}

// Aggregate builds the analysis for one candidate. matches must hold one
// entry per job-description skill. suggestedTips are kept only when they name
// a Missing or Partial skill.
//
// When fewer than MinTips specific tips exist the analysis is still returned,
// together with an InsufficientEvidenceError.
func (a Aggregator) Aggregate(candidateName string, matches []analysis.SkillMatch, suggestedTips []string) (analysis.Analysis, error) {
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		switch m.Status {
		case analysis.StatusMatched, analysis.StatusPartial, analysis.StatusMissing:
		default:
			return analysis.Analysis{}, fmt.Errorf("skill %q has invalid status %d", m.Skill, int(m.Status))
		}
		key := m.Skill.Key()
		if seen[key] {
			return analysis.Analysis{}, fmt.Errorf("duplicate verdict for skill %q", m.Skill)
		}
		seen[key] = true
	}

	score := a.Score(matches)
	out := analysis.Analysis{
		CandidateName:   SanitizeName(candidateName),
		OverallScore:    score,
		Verdict:         analysis.VerdictFor(score),
		DetailedMatches: append([]analysis.SkillMatch(nil), matches...),
		ImprovementTips: Tips(matches, suggestedTips),
	}

	if len(out.ImprovementTips) < MinTips {
		return out, &analysis.InsufficientEvidenceError{Produced: len(out.ImprovementTips), Required: MinTips}
	}
	return out, nil
}

// PadTips tops tips up to MinTips with generic advice.
func PadTips(tips []string) []string {
	out := append([]string(nil), tips...)
	for _, generic := range GenericTips {
		if len(out) >= MinTips {
			break
		}
		out = append(out, generic)
	}
	return out
}

// SanitizeName returns the trimmed name, or NameNotFound for empty and placeholder values.
func SanitizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	key := strings.ToLower(strings.Trim(name, " .,:;-_\"'"))
	if key == "" || placeholderNames[key] || strings.EqualFold(name, NameNotFound) {
		return NameNotFound
	}
	return name
}

func (a Aggregator) weights() Weights {
	if a.Weights == (Weights{}) {
		return DefaultWeights
	}
	return a.Weights
}
