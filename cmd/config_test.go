package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/pipeline"
	"github.com/reasm-dev/reasm/internal/vectorindex"
)

func newTestViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	if yaml != "" {
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	}
	return v
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "hybrid", cfg.Matching.Strategy)
	assert.Equal(t, 0.75, cfg.Matching.Threshold)
	assert.Equal(t, 0.85, cfg.Matching.StrongThreshold)
	assert.Equal(t, 3, cfg.Matching.TopK)
	assert.Equal(t, 50, cfg.Pipeline.MinResumeLength)
	assert.Equal(t, 20, cfg.Pipeline.MinJDLength)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.Timeout)
	assert.Equal(t, "memory", cfg.Index.Provider)
	assert.Equal(t, "lexicon", cfg.Extractor)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
}

func TestDecodeConfigFromFileAndEnv(t *testing.T) {
	t.Setenv("REASM_MATCHING_TOP_K", "5")

	cfg, err := decodeConfig(newTestViper(t, `
matching:
  strategy: Embedding
  threshold: 0.6
pipeline:
  timeout: 45s
embedding:
  provider: hashing
index:
  provider: pinecone
  pinecone:
    host: skills.svc.pinecone.io
`))
	require.NoError(t, err)

	assert.Equal(t, "embedding", cfg.Matching.Strategy)
	assert.Equal(t, 0.6, cfg.Matching.Threshold)
	assert.Equal(t, 5, cfg.Matching.TopK)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, "hashing", cfg.Embedding.Provider)
	assert.Equal(t, "skills.svc.pinecone.io", cfg.Index.Pinecone.Host)
}

func TestDecodeConfigRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"strategy":       "matching:\n  strategy: magic\n",
		"threshold":      "matching:\n  threshold: 1.5\n",
		"zero threshold": "matching:\n  threshold: 0\n",
		"inverted":       "matching:\n  threshold: 0.9\n  strong-threshold: 0.8\n",
		"index provider": "index:\n  provider: qdrant\n",
		"extractor":      "extractor: regex\n",
		"upload limit":   "server:\n  max-upload-bytes: 10\n",
	}

	for name, yaml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeConfig(newTestViper(t, yaml))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestNeedsGemini(t *testing.T) {
	cfg := &Config{
		Matching:  MatchingConfig{Strategy: "embedding"},
		Embedding: EmbeddingConfig{Provider: "hashing"},
		Extractor: "lexicon",
	}
	assert.False(t, needsGemini(cfg))

	cfg.Extractor = "llm"
	assert.True(t, needsGemini(cfg))

	cfg.Extractor = "lexicon"
	cfg.Embedding.Provider = "gemini"
	assert.True(t, needsGemini(cfg))

	cfg.Embedding.Provider = "hashing"
	cfg.Matching.Strategy = "hybrid"
	assert.True(t, needsGemini(cfg))
}

func TestBuildComponentsOffline(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t, "matching:\n  strategy: embedding\nembedding:\n  provider: hashing\n"))
	require.NoError(t, err)

	comps, err := buildComponents(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	report, err := comps.pipeline.Run(context.Background(), pipeline.Input{
		ResumeText:     "Jane Smith\nBackend Engineer\nBuilt services in Go and PostgreSQL, deployed with Docker on Kubernetes.",
		JobDescription: "Looking for a Go engineer with PostgreSQL, Kubernetes and Terraform experience.",
	})
	require.NoError(t, err)
	require.NoError(t, comps.Close())

	assert.Equal(t, "Jane Smith", report.CandidateName)
	skills := make([]string, 0, len(report.DetailedMatches))
	for _, m := range report.DetailedMatches {
		skills = append(skills, string(m.Skill))
	}
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes", "Terraform"}, skills)
	assert.Equal(t, analysis.StatusMatched, report.DetailedMatches[0].Status)
	assert.Equal(t, analysis.StatusMissing, report.DetailedMatches[3].Status)
}

func TestBuildComponentsRequiresGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("REASM_GEMINI_API_KEY", "")

	cfg, err := decodeConfig(newTestViper(t, "matching:\n  strategy: llm\n"))
	require.NoError(t, err)

	_, err = buildComponents(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, analysis.KindConfiguration, analysis.KindOf(err))
}

func TestBuildComponentsReadsKeyFile(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "gemini.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("test-key\n"), 0o600))

	cfg, err := decodeConfig(newTestViper(t, "matching:\n  strategy: llm\ngemini:\n  api-key-file: "+keyFile+"\n"))
	require.NoError(t, err)

	comps, err := buildComponents(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "llm", comps.strategy)
	assert.Nil(t, comps.matcher)
	require.NoError(t, comps.Close())
}

func TestChooseStrategy(t *testing.T) {
	got, err := chooseStrategy(" Embedding ", false)
	require.NoError(t, err)
	assert.Equal(t, "embedding", got)

	got, err = chooseStrategy("", false)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = chooseStrategy("random", false)
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestReadJobDescription(t *testing.T) {
	got, err := readJobDescription("inline text", "", false, 20)
	require.NoError(t, err)
	assert.Equal(t, "inline text", got)

	path := filepath.Join(t.TempDir(), "jd.txt")
	require.NoError(t, os.WriteFile(path, []byte("We need Go and Kafka."), 0o600))
	got, err = readJobDescription("", path, false, 20)
	require.NoError(t, err)
	assert.Equal(t, "We need Go and Kafka.", got)

	_, err = readJobDescription("", filepath.Join(t.TempDir(), "missing.txt"), false, 20)
	assert.Error(t, err)
}

func TestCloseReportsLeftoverNamespaces(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mem := vectorindex.NewMemory()
	require.NoError(t, mem.Upsert(context.Background(), "stale", []vectorindex.Record{{ID: "stale_0", Skill: "Go", Vector: []float32{1, 0}}}))

	comps := &components{index: mem, logger: zap.New(core)}
	require.NoError(t, comps.Close())

	entries := logs.FilterMessage("similarity namespaces left behind").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["count"])
}
