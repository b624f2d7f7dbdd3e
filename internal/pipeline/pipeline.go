// Package pipeline runs one resume/job-description analysis end to end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/document"
	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/scoring"
	"github.com/reasm-dev/reasm/internal/skills"
)

const (
	DefaultMinResumeLength = 50
	DefaultMinJDLength     = 20
)

// Step is one stage of an analysis run.
type Step interface {
	Name() string
	Apply(ctx context.Context, deps Deps, s *State) (Outcome, error)
}

// Outcome describes what a step produced, for logging.
type Outcome struct {
	Produced int
	Unit     string
}

// Deps aggregates the collaborators shared across all steps.
type Deps struct {
	Documents  document.TextExtractor
	Skills     skills.Extractor
	Classifier ai.Classifier
	Aggregator scoring.Aggregator
	Logger     *zap.Logger
}

// Config holds pipeline policy.
type Config struct {
	// Timeout bounds a whole run; zero means no limit beyond the caller's context.
	Timeout         time.Duration
	MinResumeLength int
	MinJDLength     int
}

// Input is one analysis request. Document takes precedence over ResumeText.
type Input struct {
	RequestID      string
	Document       []byte
	ResumeText     string
	JobDescription string
}

// State is the working data handed from step to step.
type State struct {
	Input          Input
	RequestID      string
	Namespace      string
	ResumeText     string
	JDText         string
	ResumeSkills   []analysis.SkillTerm
	JDSkills       []analysis.SkillTerm
	Classification *ai.Classification
	Report         *analysis.Report
}

// Status represents runtime information about a step.
type Status struct {
	Name    string
	Details map[string]string
}

// Pipeline runs its steps in order for every request.
type Pipeline struct {
	cfg   Config
	deps  Deps
	steps []Step
}

// New validates the collaborators and builds the default step sequence.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	switch {
	case deps.Documents == nil:
		return nil, &analysis.ConfigurationError{Component: "pipeline", Message: "text extractor is required"}
	case deps.Skills == nil:
		return nil, &analysis.ConfigurationError{Component: "pipeline", Message: "skill extractor is required"}
	case deps.Classifier == nil:
		return nil, &analysis.ConfigurationError{Component: "pipeline", Message: "matching strategy is required"}
	case cfg.Timeout < 0:
		return nil, &analysis.ConfigurationError{Component: "pipeline", Message: "timeout must not be negative"}
	}
	if cfg.MinResumeLength <= 0 {
		cfg.MinResumeLength = DefaultMinResumeLength
	}
	if cfg.MinJDLength <= 0 {
		cfg.MinJDLength = DefaultMinJDLength
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Pipeline{
		cfg:  cfg,
		deps: deps,
		steps: []Step{
			&validateStep{minJD: cfg.MinJDLength},
			&extractTextStep{minResume: cfg.MinResumeLength},
			&extractSkillsStep{},
			&classifyStep{},
			&aggregateStep{},
		},
	}, nil
}

// Run executes every step and returns the report. Failures carry a taxonomy
// kind (see analysis.KindOf) or are context errors.
func (p *Pipeline) Run(ctx context.Context, in Input) (*analysis.Report, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	requestID := in.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	// The namespace is never taken from the caller: two runs sharing a request
	// id must still get disjoint similarity index partitions.
	state := &State{
		Input:     in,
		RequestID: requestID,
		Namespace: uuid.NewString(),
	}

	deps := p.deps
	deps.Logger = logger.WithFields(
		logger.WithRequest(p.deps.Logger, state.RequestID, state.Namespace),
		logger.StringFields(logger.StringField{Key: logger.FieldStrategy, Value: p.deps.Classifier.Name()})...,
	)

	started := time.Now()
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		stepStarted := time.Now()
		out, err := step.Apply(ctx, deps, state)
		elapsed := time.Since(stepStarted)
		if err != nil {
			deps.Logger.Warn("pipeline step failed",
				zap.String("name", step.Name()),
				zap.Duration("duration", elapsed),
				zap.String("kind", analysis.KindOf(err).String()),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("pipeline step",
			zap.String("name", step.Name()),
			zap.Duration("duration", elapsed),
			zap.Int("produced", out.Produced),
			zap.String("unit", out.Unit),
		)
	}

	report := state.Report
	report.RequestID = state.RequestID

	deps.Logger.Info("analysis completed",
		zap.Duration("duration", time.Since(started)),
		zap.Float64("overall_score", report.OverallScore),
		zap.String("verdict", report.Verdict.String()),
		zap.Bool("degraded", report.Degraded),
	)

	return report, nil
}

// Describe returns status entries for the configured steps.
func (p *Pipeline) Describe() []Status {
	statuses := make([]Status, 0, len(p.steps))
	for _, step := range p.steps {
		details := map[string]string{}
		switch s := step.(type) {
		case *validateStep:
			details["min_jd_length"] = strconv.Itoa(s.minJD)
		case *extractTextStep:
			details["min_resume_length"] = strconv.Itoa(s.minResume)
		case *classifyStep:
			details["strategy"] = p.deps.Classifier.Name()
		}
		statuses = append(statuses, Status{Name: step.Name(), Details: details})
	}
	return statuses
}

// collaboratorError keeps classified and context errors and maps the rest to
// ProviderUnavailableError so raw transport failures never leak untyped.
func collaboratorError(provider string, err error) error {
	if analysis.KindOf(err) != analysis.KindUnknown {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &analysis.ProviderUnavailableError{Provider: provider, Cause: err}
}
