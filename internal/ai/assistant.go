// Package ai defines the matching strategy contract shared by the LLM and embedding backends.
package ai

import (
	"context"

	"github.com/reasm-dev/reasm/internal/analysis"
)

// Request carries one resume/job-description pair through a matching strategy.
type Request struct {
	// Namespace isolates this request's vectors in a shared similarity index.
	Namespace    string
	ResumeText   string
	ResumeSkills []analysis.SkillTerm
	JDText       string
	JDSkills     []analysis.SkillTerm
}

// Classification is a strategy's per-skill verdict. Matches holds exactly one
// entry per job-description skill, in job-description order.
type Classification struct {
	Strategy      string
	Matches       []analysis.SkillMatch
	CandidateName string
	// Tips are suggestions only; the aggregator keeps those naming a gap.
	Tips     []string
	Degraded bool
	Notes    []string
}

// Degrade marks the classification as a low-confidence result.
func (c *Classification) Degrade(note string) {
	c.Degraded = true
	if note != "" {
		c.Notes = append(c.Notes, note)
	}
}

// Classifier classifies every job-description skill against a resume.
type Classifier interface {
	Classify(ctx context.Context, req Request) (*Classification, error)
	Name() string
}
