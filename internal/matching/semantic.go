// Package matching classifies job-description skills against resume skills.
package matching

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/embedding"
	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/vectorindex"
)

const (
	DefaultThreshold       = 0.75
	DefaultStrongThreshold = 0.85
	DefaultTopK            = 3
	DefaultConcurrency     = 4
	DefaultCleanupTimeout  = 10 * time.Second
)

// Degradation notes attached to results that are not a confident assessment.
const (
	NoteIndexUnavailable = "similarity index unavailable; every skill reported Missing"
	NoteNothingEmbedded  = "no job-description skill could be embedded; every skill reported Missing"
	NoteNoResumeVectors  = "no resume skill could be embedded; every skill reported Missing"
)

// noteSkipped is attached for every term left out because it could not be embedded.
func noteSkipped(side string, term analysis.SkillTerm) string {
	return fmt.Sprintf("%s skill %q could not be embedded and was not compared", side, term)
}

// Config tunes the semantic matcher.
type Config struct {
	Threshold       float64
	StrongThreshold float64
	TopK            int
	Concurrency     int
	CleanupTimeout  time.Duration
}

// Binding is the outcome for one job-description skill.
type Binding struct {
	Skill       analysis.SkillTerm
	MatchedWith analysis.SkillTerm
	Similarity  float64
	Status      analysis.MatchStatus
	// Closest is the most similar resume skill that stayed below the threshold.
	Closest           analysis.SkillTerm
	ClosestSimilarity float64
	// Unassessed is set when the skill could not be compared at all.
	Unassessed bool
}

// Result lists one binding per job-description skill, in job-description order.
type Result struct {
	Bindings []Binding
	// Skipped lists resume skills that took no part in matching.
	Skipped  []analysis.SkillTerm
	Degraded bool
	Notes    []string
}

func (r *Result) degrade(note string) {
	r.Degraded = true
	r.Notes = append(r.Notes, note)
}

// abandon marks every binding as not compared and degrades the result.
func (r *Result) abandon(note string) {
	for i := range r.Bindings {
		r.Bindings[i].Unassessed = true
	}
	r.degrade(note)
}

// SemanticMatcher binds job-description skills to resume skills through an
// embedding provider and a namespaced similarity index.
type SemanticMatcher struct {
	embedder embedding.Provider
	index    vectorindex.Index
	cfg      Config
	logger   *zap.Logger

	cleanups sync.WaitGroup
}

// NewSemanticMatcher validates cfg, filling zero values with defaults. A zero
// threshold therefore means the default; thresholds must be in (0, 1].
func NewSemanticMatcher(embedder embedding.Provider, index vectorindex.Index, cfg Config, log *zap.Logger) (*SemanticMatcher, error) {
	if embedder == nil || index == nil {
		return nil, &analysis.ConfigurationError{Component: "matching", Message: "embedding provider and similarity index are required"}
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.StrongThreshold == 0 {
		cfg.StrongThreshold = DefaultStrongThreshold
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.CleanupTimeout <= 0 {
		cfg.CleanupTimeout = DefaultCleanupTimeout
	}
	if cfg.Threshold < 0 || cfg.StrongThreshold > 1 || cfg.Threshold > cfg.StrongThreshold {
		return nil, &analysis.ConfigurationError{
			Component: "matching",
			Message:   fmt.Sprintf("thresholds must satisfy 0 < threshold (%.2f) <= strong threshold (%.2f) <= 1", cfg.Threshold, cfg.StrongThreshold),
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &SemanticMatcher{embedder: embedder, index: index, cfg: cfg, logger: log}, nil
}

// Match classifies every job-description skill. Claims are first come,
// first served in resume order: once a job-description skill is bound, later
// resume skills cannot take it even with a higher similarity.
//
// namespace must be unique to this call; an empty one is generated.
//
// Embedding failures skip the affected term and degrade the result. An
// unreachable index, or a resume with no embeddable skill, degrades the result
// to all-Missing instead of failing. Only cancellation is returned as an error.
func (m *SemanticMatcher) Match(ctx context.Context, namespace string, resumeSkills, jdSkills []analysis.SkillTerm) (*Result, error) {
	if namespace == "" {
		namespace = uuid.NewString()
	}
	log := logger.WithRequest(m.logger, "", namespace)

	jd := analysis.DedupeTerms(jdSkills)
	resume := analysis.DedupeTerms(resumeSkills)

	result := &Result{Bindings: make([]Binding, len(jd))}
	for i, skill := range jd {
		result.Bindings[i] = Binding{Skill: skill, Status: analysis.StatusMissing}
	}
	if len(jd) == 0 {
		return result, nil
	}

	cache := newVectorCache(m.embedder)

	jdVectors, err := m.embedAll(ctx, cache, jd, log)
	if err != nil {
		return nil, err
	}

	records := make([]vectorindex.Record, 0, len(jd))
	idToJD := make(map[string]int, len(jd))
	for i, vec := range jdVectors {
		if vec == nil {
			result.Bindings[i].Unassessed = true
			result.degrade(noteSkipped("job-description", jd[i]))
			continue
		}
		id := fmt.Sprintf("%s_%d", namespace, i)
		idToJD[id] = i
		records = append(records, vectorindex.Record{ID: id, Skill: jd[i], Vector: vec})
	}
	if len(records) == 0 {
		log.Warn("no job-description vectors to store")
		result.Notes = nil
		result.abandon(NoteNothingEmbedded)
		return result, nil
	}

	defer m.cleanup(ctx, namespace, log)

	if err := m.index.Upsert(ctx, namespace, records); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("similarity index upsert failed", zap.Error(err))
		result.abandon(NoteIndexUnavailable)
		return result, nil
	}

	if len(resume) == 0 {
		return result, nil
	}

	resumeVectors, err := m.embedAll(ctx, cache, resume, log)
	if err != nil {
		return nil, err
	}
	for i, vec := range resumeVectors {
		if vec == nil {
			result.Skipped = append(result.Skipped, resume[i])
		}
	}
	if len(result.Skipped) == len(resume) {
		log.Warn("no resume vectors to query")
		result.abandon(NoteNoResumeVectors)
		return result, nil
	}
	for _, term := range result.Skipped {
		result.degrade(noteSkipped("resume", term))
	}

	candidates, failed, err := m.queryAll(ctx, namespace, resumeVectors, log)
	if err != nil {
		return nil, err
	}
	if len(failed)+len(result.Skipped) == len(resume) {
		result.abandon(NoteIndexUnavailable)
		return result, nil
	}
	for _, i := range failed {
		result.Skipped = append(result.Skipped, resume[i])
		result.degrade(fmt.Sprintf("similarity query for resume skill %q failed; it was not compared", resume[i]))
	}

	m.claim(result, resume, candidates, idToJD, jd)

	return result, nil
}

// Wait blocks until every pending index cleanup has finished.
func (m *SemanticMatcher) Wait() {
	m.cleanups.Wait()
}

func (m *SemanticMatcher) claim(result *Result, resume []analysis.SkillTerm, candidates [][]vectorindex.Candidate, idToJD map[string]int, jd []analysis.SkillTerm) {
	claimed := make([]bool, len(result.Bindings))

	for ri, hits := range candidates {
		for _, hit := range hits {
			ji, ok := resolveJD(hit, idToJD, jd)
			if !ok {
				continue
			}
			b := &result.Bindings[ji]

			if hit.Similarity < m.cfg.Threshold {
				if !claimed[ji] && hit.Similarity > b.ClosestSimilarity {
					b.Closest = resume[ri]
					b.ClosestSimilarity = hit.Similarity
				}
				continue
			}
			if claimed[ji] {
				continue
			}

			claimed[ji] = true
			b.MatchedWith = resume[ri]
			b.Similarity = hit.Similarity
			b.Status = analysis.StatusPartial
			if hit.Similarity >= m.cfg.StrongThreshold {
				b.Status = analysis.StatusMatched
			}
		}
	}
}

// resolveJD maps a hit back to its job-description skill, by ID first and
// then by skill name for indexes that rewrite IDs.
func resolveJD(hit vectorindex.Candidate, idToJD map[string]int, jd []analysis.SkillTerm) (int, bool) {
	if i, ok := idToJD[hit.ID]; ok {
		return i, true
	}
	for i, skill := range jd {
		if skill.Key() == hit.Skill.Key() {
			return i, true
		}
	}
	return 0, false
}

// embedAll embeds terms concurrently. Failed terms come back as nil vectors.
func (m *SemanticMatcher) embedAll(ctx context.Context, cache *vectorCache, terms []analysis.SkillTerm, log *zap.Logger) ([][]float32, error) {
	vectors := make([][]float32, len(terms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i, term := range terms {
		g.Go(func() error {
			vec, err := cache.get(gctx, term)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("embedding failed, skipping term", zap.String("skill", string(term)), zap.Error(err))
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// queryAll runs one top-K query per embedded resume vector. Results stay in
// resume order; failed holds the indexes of queries that errored, ascending.
func (m *SemanticMatcher) queryAll(ctx context.Context, namespace string, vectors [][]float32, log *zap.Logger) ([][]vectorindex.Candidate, []int, error) {
	results := make([][]vectorindex.Candidate, len(vectors))
	errored := make([]bool, len(vectors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		g.Go(func() error {
			hits, err := m.index.Query(gctx, namespace, vec, m.cfg.TopK)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("similarity query failed, skipping term", zap.Error(err))
				errored[i] = true
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var failed []int
	for i, bad := range errored {
		if bad {
			failed = append(failed, i)
		}
	}
	return results, failed, nil
}

// cleanup drops the namespace in the background; cancellation of ctx does not stop it.
func (m *SemanticMatcher) cleanup(ctx context.Context, namespace string, log *zap.Logger) {
	m.cleanups.Add(1)
	go func() {
		defer m.cleanups.Done()

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.CleanupTimeout)
		defer cancel()

		if err := m.index.DeleteAll(cctx, namespace); err != nil {
			log.Warn("failed to delete similarity namespace", zap.Error(err))
			return
		}
		log.Debug("similarity namespace deleted")
	}()
}

// vectorCache memoises embeddings for the duration of one match.
type vectorCache struct {
	provider embedding.Provider
	mu       sync.Mutex
	vectors  map[string][]float32
}

func newVectorCache(provider embedding.Provider) *vectorCache {
	return &vectorCache{provider: provider, vectors: make(map[string][]float32)}
}

func (c *vectorCache) get(ctx context.Context, term analysis.SkillTerm) ([]float32, error) {
	key := term.Key()

	c.mu.Lock()
	vec, ok := c.vectors[key]
	c.mu.Unlock()
	if ok {
		return vec, nil
	}

	vec, err := c.provider.Embed(ctx, string(term))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.vectors[key] = vec
	c.mu.Unlock()
	return vec, nil
}
