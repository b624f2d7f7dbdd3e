package vectorindex

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reasm-dev/reasm/internal/embedding"
)

// Memory is an in-process index doing exact search by linear scan.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string][]Record
}

// NewMemory returns an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string][]Record)}
}

// Upsert stores records, replacing any with the same ID in the namespace.
func (m *Memory) Upsert(ctx context.Context, namespace string, records []Record) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.namespaces[namespace]
	for _, rec := range records {
		if len(stored) > 0 && len(rec.Vector) != len(stored[0].Vector) {
			return fmt.Errorf("record %s: %w", rec.ID, embedding.CheckDimensions(len(stored[0].Vector), rec.Vector))
		}
		rec.Vector = append([]float32(nil), rec.Vector...)

		replaced := false
		for i := range stored {
			if stored[i].ID == rec.ID {
				stored[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			stored = append(stored, rec)
		}
	}
	m.namespaces[namespace] = stored

	return nil
}

// Query returns up to topK records of the namespace by descending similarity.
// Equal scores keep insertion order.
func (m *Memory) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Candidate, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []Candidate{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	h := &candidateHeap{}
	for seq, rec := range m.namespaces[namespace] {
		hit := scored{seq: seq, Candidate: Candidate{
			ID:         rec.ID,
			Skill:      rec.Skill,
			Similarity: embedding.Cosine(vector, rec.Vector),
			Namespace:  namespace,
		}}

		if h.Len() < topK {
			heap.Push(h, hit)
		} else if hit.Similarity > (*h)[0].Similarity {
			heap.Pop(h)
			heap.Push(h, hit)
		}
	}

	hits := []scored(*h)
	sort.Slice(hits, func(i, j int) bool { return hits[j].worse(hits[i]) })

	out := make([]Candidate, len(hits))
	for i, hit := range hits {
		out[i] = hit.Candidate
	}
	return out, nil
}

// DeleteAll drops the namespace.
func (m *Memory) DeleteAll(_ context.Context, namespace string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)

	return nil
}

// Namespaces returns how many namespaces currently hold records.
func (m *Memory) Namespaces() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces)
}

func (m *Memory) Close() error { return nil }

type scored struct {
	Candidate
	seq int
}

// worse orders hits by similarity, then by later insertion.
func (s scored) worse(o scored) bool {
	if s.Similarity != o.Similarity {
		return s.Similarity < o.Similarity
	}
	return s.seq > o.seq
}

// candidateHeap is a min-heap whose root is the weakest kept hit.
type candidateHeap []scored

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].worse(h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(scored))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
