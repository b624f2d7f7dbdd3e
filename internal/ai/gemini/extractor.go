package gemini

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/skills"
	"github.com/reasm-dev/reasm/internal/utils"
)

//go:embed skills_schema.json
var skillsSchemaJSON string

var skillsSchema = mustSchema(skillsSchemaJSON)

const extractionSystemPrompt = `You extract skills from recruiting documents.
List every technical skill, tool, framework, technology and explicitly required soft skill in the text.
Use the spelling from the text, one entry per skill, in order of first appearance, without duplicates.
Return only JSON: {"skills": ["..."]}`

type skillList struct {
	Skills []string `json:"skills"`
}

// SkillExtractor extracts skills with Gemini and falls back to a local
// extractor when the model fails or returns nothing.
type SkillExtractor struct {
	generator contentGenerator
	fallback  skills.Extractor
	dedupe    func([]analysis.SkillTerm) []analysis.SkillTerm
	logger    *zap.Logger
	maxLogLen int
}

// NewSkillExtractor builds the extractor. fallback and dedupe may be nil.
func NewSkillExtractor(generator contentGenerator, fallback skills.Extractor, dedupe func([]analysis.SkillTerm) []analysis.SkillTerm, log *zap.Logger, maxLogLength int) *SkillExtractor {
	if dedupe == nil {
		dedupe = analysis.DedupeTerms
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &SkillExtractor{
		generator: generator,
		fallback:  fallback,
		dedupe:    dedupe,
		logger:    logger.WithAI(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (e *SkillExtractor) Extract(ctx context.Context, text string) ([]analysis.SkillTerm, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &analysis.EmptyInputError{Field: "text", Message: "nothing to extract skills from"}
	}

	terms, err := e.extract(ctx, text)
	if err == nil && len(terms) > 0 {
		return terms, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if e.fallback == nil {
		if err != nil {
			return nil, err
		}
		return terms, nil
	}

	e.logger.Warn("gemini skill extraction unusable, using local extractor", zap.Error(err), zap.Int("skills", len(terms)))
	return e.fallback.Extract(ctx, text)
}

func (e *SkillExtractor) extract(ctx context.Context, text string) ([]analysis.SkillTerm, error) {
	e.logger.Debug("gemini skill extraction request",
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", utils.TruncateForLog(text, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, extractionSystemPrompt, "Text:\n"+text+"\n\nJSON Response:")
	if err != nil {
		return nil, err
	}

	var parsed skillList
	if err := skillsSchema.decode(raw, &parsed); err != nil {
		return nil, err
	}

	terms := e.dedupe(analysis.TermsFromStrings(parsed.Skills))
	e.logger.Debug("gemini skill extraction response", zap.Strings("skills", analysis.Strings(terms)))
	return terms, nil
}
