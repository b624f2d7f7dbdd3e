package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reasm-dev/reasm/internal/analysis"
)

func match(skill string, status analysis.MatchStatus) analysis.SkillMatch {
	return analysis.SkillMatch{Skill: analysis.SkillTerm(skill), Status: status, Justification: "because"}
}

func TestAggregateExample(t *testing.T) {
	matches := []analysis.SkillMatch{
		match("React", analysis.StatusMatched),
		match("Kubernetes", analysis.StatusPartial),
		match("Communication", analysis.StatusMissing),
	}

	got, err := Aggregator{}.Aggregate("Jane Smith", matches, nil)
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", got.CandidateName)
	assert.InDelta(t, 50.0, got.OverallScore, 0.001)
	assert.Equal(t, analysis.VerdictPotentialMatch, got.Verdict)
	assert.Equal(t, matches, got.DetailedMatches)
	require.Len(t, got.ImprovementTips, 2)
	assert.Contains(t, got.ImprovementTips[0], "Communication")
	assert.Contains(t, got.ImprovementTips[1], "Kubernetes")
}

func TestScoreIsMonotonic(t *testing.T) {
	a := Aggregator{}
	statuses := []analysis.MatchStatus{analysis.StatusMissing, analysis.StatusMissing, analysis.StatusMissing, analysis.StatusMissing}
	build := func() []analysis.SkillMatch {
		out := make([]analysis.SkillMatch, len(statuses))
		for i, s := range statuses {
			out[i] = match(string(rune('A'+i)), s)
		}
		return out
	}

	prev := a.Score(build())
	assert.Zero(t, prev)
	for i := range statuses {
		statuses[i] = analysis.StatusPartial
		partial := a.Score(build())
		assert.Greater(t, partial, prev)

		statuses[i] = analysis.StatusMatched
		matched := a.Score(build())
		assert.Greater(t, matched, partial)
		prev = matched
	}
	assert.Equal(t, 100.0, prev)
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	got := Aggregator{}.Score([]analysis.SkillMatch{
		match("A", analysis.StatusMatched),
		match("B", analysis.StatusMissing),
		match("C", analysis.StatusMissing),
	})
	assert.Equal(t, 33.33, got)
	assert.Zero(t, Aggregator{}.Score(nil))
}

func TestCustomWeights(t *testing.T) {
	a := Aggregator{Weights: Weights{Matched: 1, Partial: 0.25}}
	got := a.Score([]analysis.SkillMatch{match("A", analysis.StatusPartial)})
	assert.Equal(t, 25.0, got)
}

func TestVerdictBands(t *testing.T) {
	tests := []struct {
		name     string
		statuses []analysis.MatchStatus
		want     analysis.Verdict
	}{
		{"all matched", []analysis.MatchStatus{analysis.StatusMatched, analysis.StatusMatched}, analysis.VerdictStrongHire},
		{"four of five", []analysis.MatchStatus{analysis.StatusMatched, analysis.StatusMatched, analysis.StatusMatched, analysis.StatusMatched, analysis.StatusMissing}, analysis.VerdictStrongHire},
		{"half", []analysis.MatchStatus{analysis.StatusMatched, analysis.StatusMissing}, analysis.VerdictPotentialMatch},
		{"one partial", []analysis.MatchStatus{analysis.StatusPartial}, analysis.VerdictPotentialMatch},
		{"below half", []analysis.MatchStatus{analysis.StatusPartial, analysis.StatusMissing}, analysis.VerdictSkillGap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := make([]analysis.SkillMatch, len(tt.statuses))
			for i, s := range tt.statuses {
				matches[i] = match(string(rune('A'+i)), s)
			}
			got, _ := Aggregator{}.Aggregate("Ada Lovelace", matches, nil)
			assert.Equal(t, tt.want, got.Verdict)
		})
	}
}

func TestAggregateCapsTipsAndPrefersMissing(t *testing.T) {
	matches := []analysis.SkillMatch{
		match("Go", analysis.StatusPartial),
		match("Terraform", analysis.StatusMissing),
		match("Kafka", analysis.StatusMissing),
		match("gRPC", analysis.StatusPartial),
		match("Redis", analysis.StatusMissing),
		match("AWS", analysis.StatusMissing),
	}

	got, err := Aggregator{}.Aggregate("Ada Lovelace", matches, nil)
	require.NoError(t, err)
	require.Len(t, got.ImprovementTips, MaxTips)
	for i, skill := range []string{"Terraform", "Kafka", "Redis", "AWS"} {
		assert.Contains(t, got.ImprovementTips[i], skill)
	}
}

func TestAggregateKeepsOnlyRelevantSuggestions(t *testing.T) {
	matches := []analysis.SkillMatch{
		match("Go", analysis.StatusMatched),
		match("Terraform", analysis.StatusMissing),
		match("Kafka", analysis.StatusPartial),
	}
	suggested := []string{
		"Polish your resume layout.",
		"Write a Terraform module for a real project and link it.",
		"write a terraform module for a real project and link it.",
		"Highlight your Go experience more.",
	}

	got, err := Aggregator{}.Aggregate("Ada Lovelace", matches, suggested)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Write a Terraform module for a real project and link it.",
		generatedTip(matches[2]),
	}, got.ImprovementTips)
}

func TestAggregateInsufficientEvidence(t *testing.T) {
	matches := []analysis.SkillMatch{
		match("Go", analysis.StatusMatched),
		match("Docker", analysis.StatusMissing),
	}

	got, err := Aggregator{}.Aggregate("Ada Lovelace", matches, nil)
	require.Error(t, err)

	var insufficient *analysis.InsufficientEvidenceError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 1, insufficient.Produced)
	assert.Equal(t, MinTips, insufficient.Required)
	assert.Equal(t, analysis.KindInsufficientEvidence, analysis.KindOf(err))

	assert.Len(t, got.ImprovementTips, 1)
	assert.Equal(t, 50.0, got.OverallScore)

	padded := PadTips(got.ImprovementTips)
	assert.Len(t, padded, MinTips)
	assert.Equal(t, got.ImprovementTips[0], padded[0])
	assert.Len(t, PadTips(nil), MinTips)
}

func TestAggregateIgnoresSuggestionsThatOnlyContainShortSkillNames(t *testing.T) {
	matches := []analysis.SkillMatch{
		match("Go", analysis.StatusMissing),
		match("R", analysis.StatusMissing),
	}
	suggested := []string{
		"Make a good first impression with a cover letter.",
		"Polish your resume formatting.",
	}

	got, err := Aggregator{}.Aggregate("Ada Lovelace", matches, suggested)
	require.NoError(t, err)
	assert.Equal(t, []string{generatedTip(matches[0]), generatedTip(matches[1])}, got.ImprovementTips)

	got, err = Aggregator{}.Aggregate("Ada Lovelace", matches, []string{"Ship a small Go service and link it.", "Learn R for statistics."})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ship a small Go service and link it.", "Learn R for statistics."}, got.ImprovementTips)
}

func TestAggregateRejectsDuplicateSkills(t *testing.T) {
	_, err := Aggregator{}.Aggregate("Ada", []analysis.SkillMatch{
		match("Go", analysis.StatusMatched),
		match("go", analysis.StatusMissing),
	}, nil)
	assert.ErrorContains(t, err, "duplicate")
}

func TestAggregateDoesNotAliasInput(t *testing.T) {
	matches := []analysis.SkillMatch{
		match("Go", analysis.StatusMissing),
		match("Rust", analysis.StatusMissing),
	}
	got, err := Aggregator{}.Aggregate("Ada", matches, nil)
	require.NoError(t, err)

	matches[0].Status = analysis.StatusMatched
	assert.Equal(t, analysis.StatusMissing, got.DetailedMatches[0].Status)
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"":                       NameNotFound,
		"   ":                    NameNotFound,
		"Alex Johnson":           NameNotFound,
		"john doe":               NameNotFound,
		"Your Name":              NameNotFound,
		"N/A":                    NameNotFound,
		"Unknown":                NameNotFound,
		"Candidate":              NameNotFound,
		NameNotFound:             NameNotFound,
		"  Grace   Hopper ":      "Grace Hopper",
		"Alex Johnson-Whitfield": "Alex Johnson-Whitfield",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, SanitizeName(in))
		})
	}
}
