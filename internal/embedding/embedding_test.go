package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestHashingIsDeterministic(t *testing.T) {
	h := NewHashing(0, nil)

	a, err := h.Embed(context.Background(), "Kubernetes")
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), "Kubernetes")
	require.NoError(t, err)

	assert.Len(t, a, DefaultHashingDimensions)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-6)
	assert.Equal(t, "hashing-256", h.Name())
}

func TestHashingRanksRelatedSpellingsCloser(t *testing.T) {
	h := NewHashing(512, nil)
	ctx := context.Background()

	react, err := h.Embed(ctx, "React")
	require.NoError(t, err)
	reactJS, err := h.Embed(ctx, "ReactJS")
	require.NoError(t, err)
	docker, err := h.Embed(ctx, "Docker")
	require.NoError(t, err)

	assert.Greater(t, Cosine(react, reactJS), Cosine(react, docker))
}

func TestHashingCanonicalize(t *testing.T) {
	h := NewHashing(0, func(s string) string {
		if s == "k8s" {
			return "Kubernetes"
		}
		return s
	})

	a, err := h.Embed(context.Background(), "k8s")
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), "Kubernetes")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-6)
}

func TestHashingRejectsEmptyText(t *testing.T) {
	_, err := NewHashing(0, nil).Embed(context.Background(), " -- ")
	assert.Error(t, err)
}
