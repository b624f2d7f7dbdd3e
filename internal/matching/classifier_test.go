package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/skills"
	"github.com/reasm-dev/reasm/internal/vectorindex"
)

const e2eResume = "Jane Smith\nFrontend Engineer\n• Built dashboards in ReactJS\n• Packaged services with Docker"

func TestEmbeddingClassifierJustifications(t *testing.T) {
	m := newMatcher(t, newFakeEmbedder(e2eVectors()), vectorindex.NewMemory())
	c := NewEmbeddingClassifier(m, nil)

	out, err := c.Classify(context.Background(), ai.Request{
		Namespace:    "req-1",
		ResumeText:   e2eResume,
		ResumeSkills: []analysis.SkillTerm{"ReactJS", "Docker"},
		JDSkills:     []analysis.SkillTerm{"React", "Kubernetes", "Communication"},
	})
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, StrategyEmbedding, out.Strategy)
	assert.Equal(t, "Jane Smith", out.CandidateName)
	assert.False(t, out.Degraded)
	require.Len(t, out.Matches, 3)

	assert.Equal(t, analysis.StatusMatched, out.Matches[0].Status)
	assert.Contains(t, out.Matches[0].Justification, `"ReactJS"`)
	assert.Contains(t, out.Matches[0].Justification, "Built dashboards in ReactJS")

	assert.Equal(t, analysis.StatusPartial, out.Matches[1].Status)
	assert.Contains(t, out.Matches[1].Justification, "rather than Kubernetes itself")
	assert.Contains(t, out.Matches[1].Justification, "Packaged services with Docker")

	assert.Equal(t, analysis.StatusMissing, out.Matches[2].Status)
	assert.Contains(t, out.Matches[2].Justification, `closest resume skill is "Docker"`)
}

func TestEmbeddingClassifierExtractsResumeSkills(t *testing.T) {
	m := newMatcher(t, newFakeEmbedder(e2eVectors()), vectorindex.NewMemory())
	c := NewEmbeddingClassifier(m, skills.NewLexicon(nil))

	out, err := c.Classify(context.Background(), ai.Request{
		Namespace:  "req-2",
		ResumeText: e2eResume,
		JDSkills:   []analysis.SkillTerm{"React", "Kubernetes"},
	})
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, analysis.StatusMatched, out.Matches[0].Status)
	assert.Equal(t, analysis.StatusPartial, out.Matches[1].Status)
}

func TestEmbeddingClassifierDegradedJustification(t *testing.T) {
	idx := newHookedIndex()
	idx.upsertErr = errors.New("dial tcp: connection refused")
	m := newMatcher(t, newFakeEmbedder(e2eVectors()), idx)

	out, err := NewEmbeddingClassifier(m, nil).Classify(context.Background(), ai.Request{
		Namespace:    "req-3",
		ResumeText:   e2eResume,
		ResumeSkills: []analysis.SkillTerm{"ReactJS"},
		JDSkills:     []analysis.SkillTerm{"React"},
	})
	require.NoError(t, err)
	m.Wait()

	assert.True(t, out.Degraded)
	assert.Equal(t, []string{NoteIndexUnavailable}, out.Notes)
	assert.Contains(t, out.Matches[0].Justification, "Not assessed")
}

func TestEmbeddingClassifierListsUnrelatedSkills(t *testing.T) {
	b := Binding{Skill: "Rust", Status: analysis.StatusMissing}
	got := justify(b, "", []analysis.SkillTerm{"A", "B", "C", "D", "E", "F"})
	assert.Equal(t, "No evidence of Rust; the resume's skills (A, B, C, D, E, ...) are unrelated", got)

	got = justify(b, "", nil)
	assert.Contains(t, got, "no skills could be identified")
}

func TestEmbeddingClassifierDoesNotCallSkippedSkillsUnrelated(t *testing.T) {
	emb := newFakeEmbedder(e2eVectors())
	emb.fail["ReactJS"] = true
	emb.fail["Docker"] = true
	m := newMatcher(t, emb, vectorindex.NewMemory())

	out, err := NewEmbeddingClassifier(m, nil).Classify(context.Background(), ai.Request{
		ResumeText:   e2eResume,
		ResumeSkills: []analysis.SkillTerm{"ReactJS", "Docker"},
		JDSkills:     []analysis.SkillTerm{"React", "Kubernetes"},
	})
	require.NoError(t, err)
	m.Wait()

	assert.True(t, out.Degraded)
	assert.Contains(t, out.Notes, NoteNoResumeVectors)
	for _, match := range out.Matches {
		assert.Equal(t, analysis.StatusMissing, match.Status)
		assert.Contains(t, match.Justification, "Not assessed")
		assert.NotContains(t, match.Justification, "unrelated")
	}
}

func TestEmbeddingClassifierListsOnlyComparedSkills(t *testing.T) {
	vectors := e2eVectors()
	vectors["Rust"] = []float32{0, 0, -1}
	emb := newFakeEmbedder(vectors)
	emb.fail["ReactJS"] = true
	m := newMatcher(t, emb, vectorindex.NewMemory())

	out, err := NewEmbeddingClassifier(m, nil).Classify(context.Background(), ai.Request{
		ResumeText:   e2eResume,
		ResumeSkills: []analysis.SkillTerm{"ReactJS", "Docker"},
		JDSkills:     []analysis.SkillTerm{"Rust"},
	})
	require.NoError(t, err)
	m.Wait()

	assert.True(t, out.Degraded)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, "No evidence of Rust; the resume's skills (Docker) are unrelated", out.Matches[0].Justification)
}

func TestFallbackUsesSecondaryOnProviderFailure(t *testing.T) {
	primary := &stubClassifier{name: "llm", err: &analysis.ProviderUnavailableError{Provider: "gemini", RateLimited: true}}
	secondary := &stubClassifier{name: "embedding", out: &ai.Classification{Strategy: "embedding"}}

	f := &Fallback{Primary: primary, Secondary: secondary}
	out, err := f.Classify(context.Background(), ai.Request{})
	require.NoError(t, err)

	assert.Equal(t, 1, secondary.calls)
	assert.True(t, out.Degraded)
	assert.Equal(t, []string{"llm strategy unavailable; result computed with embedding"}, out.Notes)
	assert.Equal(t, StrategyHybrid, f.Name())
}

func TestFallbackReturnsNonProviderErrors(t *testing.T) {
	primary := &stubClassifier{name: "llm", err: &analysis.EmptyInputError{Field: "resume"}}
	secondary := &stubClassifier{name: "embedding", out: &ai.Classification{}}

	_, err := (&Fallback{Primary: primary, Secondary: secondary}).Classify(context.Background(), ai.Request{})
	assert.Equal(t, analysis.KindEmptyInput, analysis.KindOf(err))
	assert.Equal(t, 0, secondary.calls)
}

func TestFallbackReportsBothFailures(t *testing.T) {
	primary := &stubClassifier{name: "llm", err: &analysis.ProviderUnavailableError{Provider: "gemini"}}
	secondary := &stubClassifier{name: "embedding", err: &analysis.ConfigurationError{Component: "pinecone", Message: "api key is not configured"}}

	_, err := (&Fallback{Primary: primary, Secondary: secondary}).Classify(context.Background(), ai.Request{})
	require.Error(t, err)
	assert.Equal(t, analysis.KindConfiguration, analysis.KindOf(err))
	assert.Contains(t, err.Error(), "gemini is unavailable")
}

