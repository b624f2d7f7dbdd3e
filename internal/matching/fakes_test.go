package matching

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/vectorindex"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    map[string]bool
	calls   map[string]int
}

func newFakeEmbedder(vectors map[string][]float32) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[text]++
	if f.fail[text] {
		return nil, errors.New("embedding service timeout")
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

// e2eVectors place React/ReactJS above the strong threshold, Kubernetes/Docker
// between the thresholds and Communication below both.
func e2eVectors() map[string][]float32 {
	return map[string][]float32{
		"React":         {1, 0, 0},
		"ReactJS":       {0.95, 0.312, 0},
		"Kubernetes":    {0, 1, 0},
		"Docker":        {0, 0.8, 0.6},
		"Communication": {0, 0, 1},
	}
}

// hookedIndex wraps the memory index with failure and blocking hooks.
type hookedIndex struct {
	*vectorindex.Memory
	upsertErr  error
	queryErr   error
	blockQuery bool

	mu      sync.Mutex
	deleted []string
}

func newHookedIndex() *hookedIndex {
	return &hookedIndex{Memory: vectorindex.NewMemory()}
}

func (h *hookedIndex) Upsert(ctx context.Context, ns string, records []vectorindex.Record) error {
	if h.upsertErr != nil {
		return h.upsertErr
	}
	return h.Memory.Upsert(ctx, ns, records)
}

func (h *hookedIndex) Query(ctx context.Context, ns string, vec []float32, topK int) ([]vectorindex.Candidate, error) {
	if h.blockQuery {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if h.queryErr != nil {
		return nil, h.queryErr
	}
	return h.Memory.Query(ctx, ns, vec, topK)
}

func (h *hookedIndex) DeleteAll(ctx context.Context, ns string) error {
	h.mu.Lock()
	h.deleted = append(h.deleted, ns)
	h.mu.Unlock()
	return h.Memory.DeleteAll(ctx, ns)
}

// flakyQueryIndex fails queries for one vector only.
type flakyQueryIndex struct {
	*hookedIndex
	failFor []float32
}

func (f *flakyQueryIndex) Query(ctx context.Context, ns string, vec []float32, topK int) ([]vectorindex.Candidate, error) {
	if slices.Equal(vec, f.failFor) {
		return nil, errors.New("query timeout")
	}
	return f.hookedIndex.Query(ctx, ns, vec, topK)
}

func (h *hookedIndex) deletedNamespaces() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.deleted...)
}

type stubClassifier struct {
	name  string
	out   *ai.Classification
	err   error
	calls int
}

func (s *stubClassifier) Name() string { return s.name }

func (s *stubClassifier) Classify(context.Context, ai.Request) (*ai.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}
