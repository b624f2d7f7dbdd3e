package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultHashingDimensions is the vector length of the offline provider.
const DefaultHashingDimensions = 256

// Hashing is an offline provider built from hashed character trigrams and
// whole words. It needs no network and is deterministic.
type Hashing struct {
	dims int
	// Canonicalize maps spellings to one form before hashing, e.g. "k8s" to "Kubernetes".
	Canonicalize func(string) string
}

// NewHashing returns a provider producing vectors of the given length.
func NewHashing(dims int, canonicalize func(string) string) *Hashing {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &Hashing{dims: dims, Canonicalize: canonicalize}
}

func (h *Hashing) Name() string {
	return fmt.Sprintf("hashing-%d", h.dims)
}

// Embed returns the unit-length feature vector for text.
func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.Canonicalize != nil {
		text = h.Canonicalize(text)
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	if len(words) == 0 {
		return nil, fmt.Errorf("nothing to embed in %q", text)
	}

	vec := make([]float32, h.dims)
	for _, w := range words {
		h.add(vec, "w:"+w, 2)
		runes := []rune("^" + w + "$")
		for i := 0; i+3 <= len(runes); i++ {
			h.add(vec, string(runes[i:i+3]), 1)
		}
	}

	return Normalize(vec), nil
}

func (h *Hashing) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dims))
	// The top bit picks the sign so collisions tend to cancel instead of pile up.
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
