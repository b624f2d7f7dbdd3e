package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/document"
	"github.com/reasm-dev/reasm/internal/skills"
)

// StrategyEmbedding names the embedding strategy.
const StrategyEmbedding = "embedding"

const maxListedResumeSkills = 5

// EmbeddingClassifier adapts the semantic matcher to the classifier contract.
type EmbeddingClassifier struct {
	matcher *SemanticMatcher
	// extractor derives resume skills when the request carries none.
	extractor skills.Extractor
}

func NewEmbeddingClassifier(matcher *SemanticMatcher, extractor skills.Extractor) *EmbeddingClassifier {
	return &EmbeddingClassifier{matcher: matcher, extractor: extractor}
}

func (c *EmbeddingClassifier) Name() string { return StrategyEmbedding }

func (c *EmbeddingClassifier) Classify(ctx context.Context, req ai.Request) (*ai.Classification, error) {
	if len(req.JDSkills) == 0 {
		return nil, &analysis.EmptyInputError{Field: "job_description", Message: "no skills to classify"}
	}

	resumeSkills := req.ResumeSkills
	if resumeSkills == nil && c.extractor != nil && strings.TrimSpace(req.ResumeText) != "" {
		extracted, err := c.extractor.Extract(ctx, req.ResumeText)
		if err != nil {
			return nil, fmt.Errorf("extract resume skills: %w", err)
		}
		resumeSkills = extracted
	}

	result, err := c.matcher.Match(ctx, req.Namespace, resumeSkills, req.JDSkills)
	if err != nil {
		return nil, err
	}

	out := &ai.Classification{
		Strategy:      StrategyEmbedding,
		CandidateName: document.CandidateName(req.ResumeText),
		Matches:       make([]analysis.SkillMatch, 0, len(result.Bindings)),
	}
	for _, note := range result.Notes {
		out.Degrade(note)
	}
	out.Degraded = out.Degraded || result.Degraded

	compared := without(resumeSkills, result.Skipped)
	for _, b := range result.Bindings {
		out.Matches = append(out.Matches, analysis.SkillMatch{
			Skill:         b.Skill,
			Status:        b.Status,
			Justification: justify(b, req.ResumeText, compared),
		})
	}

	return out, nil
}

// justify explains one binding. compared holds only the resume skills that
// were actually matched against the job description.
func justify(b Binding, resumeText string, compared []analysis.SkillTerm) string {
	switch b.Status {
	case analysis.StatusMatched:
		return fmt.Sprintf("Resume lists %q (similarity %.2f)%s", b.MatchedWith, b.Similarity, quote(resumeText, b.MatchedWith))
	case analysis.StatusPartial:
		return fmt.Sprintf("Related experience: resume lists %q (similarity %.2f) rather than %s itself%s",
			b.MatchedWith, b.Similarity, b.Skill, quote(resumeText, b.MatchedWith))
	case analysis.StatusMissing:
		switch {
		case b.Unassessed:
			return fmt.Sprintf("Not assessed: %s could not be compared because the embedding or similarity service was unavailable", b.Skill)
		case b.Closest != "":
			return fmt.Sprintf("No evidence of %s; the closest resume skill is %q (similarity %.2f, below the match threshold)",
				b.Skill, b.Closest, b.ClosestSimilarity)
		case len(compared) > 0:
			return fmt.Sprintf("No evidence of %s; the resume's skills (%s) are unrelated", b.Skill, listSkills(compared))
		default:
			return fmt.Sprintf("No evidence of %s; no skills could be identified in the resume", b.Skill)
		}
	default:
		return ""
	}
}

func without(terms, drop []analysis.SkillTerm) []analysis.SkillTerm {
	if len(drop) == 0 {
		return terms
	}
	skip := make(map[string]bool, len(drop))
	for _, t := range drop {
		skip[t.Key()] = true
	}
	out := make([]analysis.SkillTerm, 0, len(terms))
	for _, t := range terms {
		if !skip[t.Key()] {
			out = append(out, t)
		}
	}
	return out
}

func quote(resumeText string, term analysis.SkillTerm) string {
	if line, ok := document.FindMention(resumeText, string(term)); ok {
		return fmt.Sprintf(": %q", line)
	}
	return ""
}

func listSkills(terms []analysis.SkillTerm) string {
	names := analysis.Strings(terms)
	if len(names) > maxListedResumeSkills {
		return strings.Join(names[:maxListedResumeSkills], ", ") + ", ..."
	}
	return strings.Join(names, ", ")
}
