// Package embedding turns skill terms into vectors and compares them.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Provider embeds text into a fixed-length vector. Vectors from one provider
// share a coordinate space; vectors from different providers must not be mixed.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Name identifies the model, so indexes can keep spaces apart.
	Name() string
}

// Cosine returns the cosine similarity of a and b, or 0 when they cannot be compared.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp rounding noise so identical vectors compare as exactly 1.
	return math.Max(-1, math.Min(1, sim))
}

// Normalize scales v to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		v[i] = float32(float64(x) / norm)
	}
	return v
}

// CheckDimensions reports vectors whose length differs from want.
func CheckDimensions(want int, v []float32) error {
	if len(v) != want {
		return fmt.Errorf("embedding has %d dimensions, expected %d", len(v), want)
	}
	return nil
}
