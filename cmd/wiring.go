package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reasm-dev/reasm/internal/ai"
	"github.com/reasm-dev/reasm/internal/ai/gemini"
	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/document"
	"github.com/reasm-dev/reasm/internal/embedding"
	"github.com/reasm-dev/reasm/internal/logger"
	"github.com/reasm-dev/reasm/internal/matching"
	"github.com/reasm-dev/reasm/internal/pipeline"
	"github.com/reasm-dev/reasm/internal/secrets"
	"github.com/reasm-dev/reasm/internal/skills"
	"github.com/reasm-dev/reasm/internal/vectorindex"
)

const (
	geminiKeyEnv   = "GEMINI_API_KEY"
	pineconeKeyEnv = "PINECONE_API_KEY"
	databaseURLEnv = "DATABASE_URL"
)

// components owns the collaborators behind one pipeline.
type components struct {
	pipeline *pipeline.Pipeline
	strategy string
	matcher  *matching.SemanticMatcher
	index    vectorindex.Index
	logger   *zap.Logger
}

// Close waits for pending namespace cleanups, then releases the index.
func (c *components) Close() error {
	if c.matcher != nil {
		c.matcher.Wait()
	}
	if mem, ok := c.index.(*vectorindex.Memory); ok && c.logger != nil {
		if n := mem.Namespaces(); n > 0 {
			c.logger.Warn("similarity namespaces left behind", zap.Int("count", n))
		}
	}
	if c.index != nil {
		return c.index.Close()
	}
	return nil
}

func buildComponents(ctx context.Context, cfg *Config, log *zap.Logger) (*components, error) {
	lexicon := skills.NewLexicon(nil)
	norm := lexicon.Normalizer()

	var generator *gemini.Generator
	if needsGemini(cfg) {
		g, err := newGenerator(ctx, cfg.Gemini, log)
		if err != nil {
			return nil, err
		}
		generator = g
	}

	var extractor skills.Extractor = lexicon
	if cfg.Extractor == "llm" {
		extractor = gemini.NewSkillExtractor(generator, lexicon, norm.Dedupe, log, cfg.Gemini.MaxLogLength)
	}

	c := &components{strategy: cfg.Matching.Strategy, logger: log}

	var embeddingStrategy ai.Classifier
	if cfg.Matching.Strategy != gemini.StrategyName {
		index, err := newIndex(ctx, cfg.Index, log)
		if err != nil {
			return nil, err
		}
		c.index = index

		var embedder embedding.Provider
		switch cfg.Embedding.Provider {
		case "hashing":
			embedder = embedding.NewHashing(cfg.Embedding.Dimensions, norm.Canonical)
		default:
			embedder = gemini.NewEmbedder(generator)
		}

		matcher, err := matching.NewSemanticMatcher(embedder, index, matching.Config{
			Threshold:       cfg.Matching.Threshold,
			StrongThreshold: cfg.Matching.StrongThreshold,
			TopK:            cfg.Matching.TopK,
			Concurrency:     cfg.Matching.Concurrency,
			CleanupTimeout:  cfg.Matching.CleanupTimeout,
		}, log.With(zap.String("embedder", embedder.Name())))
		if err != nil {
			_ = index.Close()
			return nil, err
		}
		c.matcher = matcher
		embeddingStrategy = matching.NewEmbeddingClassifier(matcher, extractor)
	}

	var classifier ai.Classifier
	switch cfg.Matching.Strategy {
	case matching.StrategyEmbedding:
		classifier = embeddingStrategy
	case gemini.StrategyName:
		classifier = gemini.NewClassifier(generator, log, cfg.Gemini.MaxLogLength, norm.Key)
	default:
		classifier = &matching.Fallback{
			Primary:   gemini.NewClassifier(generator, log, cfg.Gemini.MaxLogLength, norm.Key),
			Secondary: embeddingStrategy,
			Logger:    log,
		}
	}

	p, err := pipeline.New(pipeline.Config{
		Timeout:         cfg.Pipeline.Timeout,
		MinResumeLength: cfg.Pipeline.MinResumeLength,
		MinJDLength:     cfg.Pipeline.MinJDLength,
	}, pipeline.Deps{
		Documents:  document.NewExtractor(cfg.Pipeline.MaxPages),
		Skills:     extractor,
		Classifier: classifier,
		Logger:     log,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.pipeline = p

	for _, status := range p.Describe() {
		log.Debug("pipeline step configured", zap.String("name", status.Name), zap.Any("details", status.Details))
	}

	return c, nil
}

func needsGemini(cfg *Config) bool {
	return cfg.Matching.Strategy != matching.StrategyEmbedding ||
		cfg.Embedding.Provider == "gemini" ||
		cfg.Extractor == "llm"
}

func newGenerator(ctx context.Context, cfg GeminiConfig, log *zap.Logger) (*gemini.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   geminiKeyEnv,
	})
	if err != nil {
		return nil, &analysis.ConfigurationError{
			Component: "gemini",
			Message:   "set gemini.api-key-file, REASM_GEMINI_API_KEY or " + geminiKeyEnv,
			Cause:     err,
		}
	}

	genLogger := logger.WithFields(logger.WithAI(log, "gemini", cfg.Model), zap.Int("ai_retry_attempts", cfg.MaxRetries))

	return gemini.NewGenerator(ctx, gemini.Config{
		APIKey:         apiKey,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		MaxRetries:     cfg.MaxRetries,
		Temperature:    cfg.Temperature,
	}, genLogger)
}

func newIndex(ctx context.Context, cfg IndexConfig, log *zap.Logger) (vectorindex.Index, error) {
	switch cfg.Provider {
	case "pinecone":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "pinecone api key",
			Value: cfg.Pinecone.APIKey,
			File:  cfg.Pinecone.APIKeyFile,
			Env:   pineconeKeyEnv,
		})
		if err != nil {
			return nil, &analysis.ConfigurationError{Component: "pinecone", Message: "api key is not configured", Cause: err}
		}
		index, err := vectorindex.NewPinecone(vectorindex.PineconeConfig{
			Host:    cfg.Pinecone.Host,
			APIKey:  apiKey,
			Timeout: cfg.Pinecone.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return index, nil
	case "pgvector":
		url, err := secrets.Load(secrets.Source{
			Name:  "postgres url",
			Value: cfg.PGVector.URL,
			File:  cfg.PGVector.URLFile,
			Env:   databaseURLEnv,
		})
		if err != nil {
			return nil, &analysis.ConfigurationError{Component: "pgvector", Message: "database url is not configured", Cause: err}
		}
		index, err := vectorindex.ConnectPGVector(ctx, url)
		if err != nil {
			return nil, err
		}
		if cfg.PGVector.Migrate {
			if err := index.EnsureSchema(ctx); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("pgvector: %w", err)
			}
		}
		return index, nil
	default:
		return vectorindex.NewMemory(), nil
	}
}
