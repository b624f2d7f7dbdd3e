// Package vectorindex stores skill vectors under per-request namespaces and
// answers nearest-neighbour queries by cosine similarity.
package vectorindex

import (
	"context"
	"errors"

	"github.com/reasm-dev/reasm/internal/analysis"
)

// ErrNamespaceRequired is returned when an operation is given an empty namespace.
var ErrNamespaceRequired = errors.New("vector index namespace is required")

// Record is one stored vector.
type Record struct {
	ID     string
	Skill  analysis.SkillTerm
	Vector []float32
}

// Candidate is one query hit, most similar first.
type Candidate struct {
	ID         string
	Skill      analysis.SkillTerm
	Similarity float64
	Namespace  string
}

// Index is a namespaced similarity index. Namespaces never see each other's records.
type Index interface {
	Upsert(ctx context.Context, namespace string, records []Record) error
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Candidate, error)
	DeleteAll(ctx context.Context, namespace string) error
	Close() error
}
