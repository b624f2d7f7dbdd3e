package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/document"
	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/utils"
)

// StrategyName identifies the LLM matching strategy in logs and reports.
const StrategyName = "llm"

type contentGenerator interface {
	GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var systemPrompt string

//go:embed schema.json
var classificationSchemaJSON string

var classificationSchema = mustSchema(classificationSchemaJSON)

const (
	defaultMaxLogLength = 200
	maxJDContextRunes   = 6000

	userPromptTemplate = "Resume:\n{{RESUME_TEXT}}\n\nSkills to classify (JSON array):\n{{JD_SKILLS}}\n\nJob description for context:\n{{JOB_DESCRIPTION}}\n\nJSON Response:"
)

type llmMatch struct {
	Skill         string `json:"skill"`
	MatchStatus   string `json:"match_status"`
	Justification string `json:"justification"`
}

type llmClassification struct {
	CandidateName   string     `json:"candidate_name"`
	DetailedMatches []llmMatch `json:"detailed_matches"`
	ImprovementTips []string   `json:"improvement_tips"`
}

// Classifier asks Gemini to classify every job-description skill in one call.
type Classifier struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	keyOf     func(string) string
}

// NewClassifier builds the LLM strategy. keyOf decides when the model's skill
// spelling refers to a requested skill; nil compares case-insensitively.
func NewClassifier(generator contentGenerator, log *zap.Logger, maxLogLength int, keyOf func(string) string) *Classifier {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if keyOf == nil {
		keyOf = func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	}

	return &Classifier{
		generator: generator,
		logger:    logger.WithAI(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
		keyOf:     keyOf,
	}
}

func (c *Classifier) Name() string { return StrategyName }

func (c *Classifier) Classify(ctx context.Context, req ai.Request) (*ai.Classification, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return nil, &analysis.EmptyInputError{Field: "resume"}
	}
	if len(req.JDSkills) == 0 {
		return nil, &analysis.EmptyInputError{Field: "job_description", Message: "no skills to classify"}
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini generate content request",
		zap.String(logger.FieldNamespace, req.Namespace),
		zap.Int("skills", len(req.JDSkills)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini generate content response",
		zap.String(logger.FieldNamespace, req.Namespace),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	var parsed llmClassification
	if err := classificationSchema.decode(raw, &parsed); err != nil {
		return nil, err
	}

	return c.reconcile(req, parsed), nil
}

// reconcile keeps exactly one verdict per requested skill, in request order.
// Skills the model skipped or labelled with an unknown status are resolved
// from a literal scan of the resume text.
func (c *Classifier) reconcile(req ai.Request, parsed llmClassification) *ai.Classification {
	byKey := make(map[string]llmMatch, len(parsed.DetailedMatches))
	for _, m := range parsed.DetailedMatches {
		key := c.keyOf(m.Skill)
		if _, dup := byKey[key]; dup || key == "" {
			continue
		}
		byKey[key] = m
	}

	out := &ai.Classification{
		Strategy:      StrategyName,
		CandidateName: strings.TrimSpace(parsed.CandidateName),
		Matches:       make([]analysis.SkillMatch, 0, len(req.JDSkills)),
	}

	var unresolved []string
	found := 0
	for _, skill := range req.JDSkills {
		m, ok := byKey[c.keyOf(string(skill))]
		if !ok {
			unresolved = append(unresolved, string(skill))
			out.Matches = append(out.Matches, LiteralMatch(req.ResumeText, skill))
			continue
		}
		found++

		status, err := analysis.ParseMatchStatus(m.MatchStatus)
		if err != nil {
			c.logger.Warn("discarding model verdict", zap.String("skill", string(skill)), zap.Error(err))
			unresolved = append(unresolved, string(skill))
			out.Matches = append(out.Matches, LiteralMatch(req.ResumeText, skill))
			continue
		}

		justification := strings.TrimSpace(m.Justification)
		if justification == "" {
			justification = LiteralMatch(req.ResumeText, skill).Justification
		}
		out.Matches = append(out.Matches, analysis.SkillMatch{Skill: skill, Status: status, Justification: justification})
	}

	if extra := len(byKey) - found; extra > 0 {
		c.logger.Debug("ignoring verdicts for skills that were not requested", zap.Int("count", extra))
	}
	if len(unresolved) > 0 {
		out.Degrade(fmt.Sprintf("model gave no usable verdict for %s; resolved from resume text", strings.Join(unresolved, ", ")))
	}

	for _, tip := range parsed.ImprovementTips {
		if tip = strings.TrimSpace(tip); tip != "" {
			out.Tips = append(out.Tips, tip)
		}
	}

	return out
}

// LiteralMatch resolves a skill without a model: Matched when the resume names
// it as a whole word, Missing otherwise.
func LiteralMatch(resumeText string, skill analysis.SkillTerm) analysis.SkillMatch {
	if line, ok := document.FindMention(resumeText, string(skill)); ok {
		return analysis.SkillMatch{
			Skill:         skill,
			Status:        analysis.StatusMatched,
			Justification: fmt.Sprintf("Resume mentions %s: %q", skill, line),
		}
	}
	return analysis.SkillMatch{
		Skill:         skill,
		Status:        analysis.StatusMissing,
		Justification: fmt.Sprintf("The resume never mentions %s or a close equivalent", skill),
	}
}

func buildPrompt(req ai.Request) (string, error) {
	skillsJSON, err := json.Marshal(analysis.Strings(req.JDSkills))
	if err != nil {
		return "", fmt.Errorf("marshal skills: %w", err)
	}

	jd := strings.TrimSpace(req.JDText)
	if jd == "" {
		jd = "(not provided)"
	}

	replacer := strings.NewReplacer(
		"{{RESUME_TEXT}}", strings.TrimSpace(req.ResumeText),
		"{{JD_SKILLS}}", string(skillsJSON),
		"{{JOB_DESCRIPTION}}", utils.TruncateForLog(jd, maxJDContextRunes),
	)
	return replacer.Replace(userPromptTemplate), nil
}
