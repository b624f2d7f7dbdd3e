package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/document"
	"github.com/reasm-dev/reasm/internal/scoring"
)

const (
	fieldResume = "resume"
	fieldJD     = "job_description"
)

// NoteGenericTips is the degradation note used when tips had to be padded.
const NoteGenericTips = "too few skill gaps for specific improvement tips; generic tips added"

type validateStep struct {
	minJD int
}

func (s *validateStep) Name() string { return "validate" }

func (s *validateStep) Apply(_ context.Context, _ Deps, st *State) (Outcome, error) {
	if len(st.Input.Document) == 0 && strings.TrimSpace(st.Input.ResumeText) == "" {
		return Outcome{}, &analysis.EmptyInputError{Field: fieldResume, Message: "provide a resume document or text"}
	}

	jd := document.CleanText(st.Input.JobDescription)
	if jd == "" {
		return Outcome{}, &analysis.EmptyInputError{Field: fieldJD}
	}
	if n := document.CleanLength(jd); n < s.minJD {
		return Outcome{}, &analysis.InputTooShortError{Field: fieldJD, Length: n, Min: s.minJD}
	}

	st.JDText = jd
	return Outcome{Produced: document.CleanLength(jd), Unit: "jd_chars"}, nil
}

type extractTextStep struct {
	minResume int
}

func (s *extractTextStep) Name() string { return "extract_text" }

func (s *extractTextStep) Apply(ctx context.Context, deps Deps, st *State) (Outcome, error) {
	text := st.Input.ResumeText
	if len(st.Input.Document) > 0 {
		extracted, err := deps.Documents.Extract(ctx, st.Input.Document)
		if err != nil {
			return Outcome{}, collaboratorError("text extractor", err)
		}
		text = extracted
	}

	text = document.CleanText(text)
	if text == "" {
		return Outcome{}, &analysis.ExtractionFailedError{Message: "no text found in the resume"}
	}
	if n := document.CleanLength(text); n < s.minResume {
		return Outcome{}, &analysis.InputTooShortError{Field: fieldResume, Length: n, Min: s.minResume}
	}

	st.ResumeText = text
	return Outcome{Produced: document.CleanLength(text), Unit: "resume_chars"}, nil
}

type extractSkillsStep struct{}

func (s *extractSkillsStep) Name() string { return "extract_skills" }

func (s *extractSkillsStep) Apply(ctx context.Context, deps Deps, st *State) (Outcome, error) {
	g, gctx := errgroup.WithContext(ctx)

	var jdSkills, resumeSkills []analysis.SkillTerm
	g.Go(func() error {
		terms, err := deps.Skills.Extract(gctx, st.JDText)
		if err != nil {
			return fmt.Errorf("job description: %w", collaboratorError("skill extractor", err))
		}
		jdSkills = analysis.DedupeTerms(terms)
		return nil
	})
	g.Go(func() error {
		terms, err := deps.Skills.Extract(gctx, st.ResumeText)
		var empty *analysis.EmptyInputError
		if errors.As(err, &empty) {
			resumeSkills = []analysis.SkillTerm{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("resume: %w", collaboratorError("skill extractor", err))
		}
		resumeSkills = analysis.DedupeTerms(terms)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	if len(jdSkills) == 0 {
		return Outcome{}, &analysis.EmptyInputError{Field: fieldJD, Message: "no skills or requirements could be identified"}
	}

	st.JDSkills = jdSkills
	st.ResumeSkills = resumeSkills

	deps.Logger.Debug("skills extracted",
		zap.Strings("jd_skills", analysis.Strings(jdSkills)),
		zap.Strings("resume_skills", analysis.Strings(resumeSkills)),
	)

	return Outcome{Produced: len(jdSkills), Unit: "jd_skills"}, nil
}

type classifyStep struct{}

func (s *classifyStep) Name() string { return "classify" }

func (s *classifyStep) Apply(ctx context.Context, deps Deps, st *State) (Outcome, error) {
	out, err := deps.Classifier.Classify(ctx, ai.Request{
		Namespace:    st.Namespace,
		ResumeText:   st.ResumeText,
		ResumeSkills: st.ResumeSkills,
		JDText:       st.JDText,
		JDSkills:     st.JDSkills,
	})
	if err != nil {
		return Outcome{}, collaboratorError(deps.Classifier.Name(), err)
	}
	if err := checkCoverage(st.JDSkills, out.Matches); err != nil {
		return Outcome{}, fmt.Errorf("%s strategy: %w", deps.Classifier.Name(), err)
	}

	st.Classification = out
	return Outcome{Produced: len(out.Matches), Unit: "matches"}, nil
}

// checkCoverage requires exactly one match per job-description skill, in order.
func checkCoverage(jd []analysis.SkillTerm, matches []analysis.SkillMatch) error {
	if len(matches) != len(jd) {
		return fmt.Errorf("got %d verdicts for %d job-description skills", len(matches), len(jd))
	}
	for i := range jd {
		if matches[i].Skill.Key() != jd[i].Key() {
			return fmt.Errorf("verdict %d is for %q, want %q", i, matches[i].Skill, jd[i])
		}
	}
	return nil
}

type aggregateStep struct{}

func (s *aggregateStep) Name() string { return "aggregate" }

func (s *aggregateStep) Apply(_ context.Context, deps Deps, st *State) (Outcome, error) {
	c := st.Classification

	name := c.CandidateName
	if scoring.SanitizeName(name) == scoring.NameNotFound {
		name = document.CandidateName(st.ResumeText)
	}

	result, err := deps.Aggregator.Aggregate(name, c.Matches, c.Tips)
	report := &analysis.Report{}

	var insufficient *analysis.InsufficientEvidenceError
	switch {
	case errors.As(err, &insufficient):
		deps.Logger.Info("padding improvement tips",
			zap.Int("specific_tips", insufficient.Produced),
			zap.Int("required", insufficient.Required),
		)
		result.ImprovementTips = scoring.PadTips(result.ImprovementTips)
		report.Degrade(NoteGenericTips)
	case err != nil:
		return Outcome{}, err
	}

	report.Analysis = result.Clone()
	for _, note := range c.Notes {
		report.Degrade(note)
	}
	if c.Degraded {
		report.Degraded = true
	}

	st.Report = report
	return Outcome{Produced: len(report.ImprovementTips), Unit: "tips"}, nil
}
