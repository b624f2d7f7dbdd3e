package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/reasm-dev/reasm/internal/analysis"
	"github.com/reasm-dev/reasm/internal/utils"
)

const (
	providerName          = "gemini"
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultMaxRetries     = 3
	retryBaseDelay        = time.Second
	retryMaxDelay         = 8 * time.Second
	// Quota delays longer than this are reported to the caller instead of waited out.
	maxInlineRetryDelay = 10 * time.Second
	jsonMIMEType        = "application/json"
)

var (
	waitFor      = utils.WaitFor
	retryAfterRe = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(ms|s|sec|secs|seconds)?\b`)
)

// modelsAPI is the part of genai.Models the generator uses.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config configures the Gemini client.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxRetries     int
	Temperature    float32
}

// Generator wraps the Google GenAI client for JSON generation and embeddings.
type Generator struct {
	models         modelsAPI
	model          string
	embeddingModel string
	maxRetries     int
	temperature    float32
	logger         *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, logger *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &analysis.ConfigurationError{Component: providerName, Message: "api key is not configured"}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &analysis.ConfigurationError{Component: providerName, Message: "create genai client", Cause: err}
	}

	return newGenerator(client.Models, cfg, logger), nil
}

func newGenerator(models modelsAPI, cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embeddingModel := strings.TrimSpace(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Generator{
		models:         models,
		model:          model,
		embeddingModel: embeddingModel,
		maxRetries:     maxRetries,
		temperature:    cfg.Temperature,
		logger:         logger,
	}
}

// GenerateContent sends the prompt under the given system instruction and
// returns the model's JSON answer as text.
func (g *Generator) GenerateContent(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: jsonMIMEType,
		Temperature:      genai.Ptr(g.temperature),
	}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}

	var output string
	err := g.withRetry(ctx, "generate content", func() error {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			return err
		}
		output = responseText(resp)
		if output == "" {
			return errEmptyResponse
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return output, nil
}

// Embed returns one vector per text from the embedding model.
func (g *Generator) Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini generator is not initialized")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{TaskType: taskType}
	}

	var vectors [][]float32
	err := g.withRetry(ctx, "embed content", func() error {
		resp, err := g.models.EmbedContent(ctx, g.embeddingModel, contents, config)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Embeddings) != len(texts) {
			return fmt.Errorf("gemini api returned %d embeddings for %d texts", embeddingCount(resp), len(texts))
		}
		vectors = make([][]float32, len(resp.Embeddings))
		for i, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return fmt.Errorf("gemini api returned an empty embedding at %d", i)
			}
			vectors[i] = e.Values
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectors, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) EmbeddingModel() string {
	if g == nil {
		return ""
	}
	return g.embeddingModel
}

var errEmptyResponse = errors.New("gemini api returned empty response")

func (g *Generator) withRetry(ctx context.Context, op string, call func() error) error {
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		mapped, retry, delay := classifyError(err)
		lastErr = mapped
		if !retry || attempt == g.maxRetries-1 {
			break
		}

		if delay <= 0 {
			delay = utils.Backoff(retryBaseDelay, retryMaxDelay, attempt)
		}
		g.logger.Warn("gemini request failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", g.maxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := waitFor(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: %w", op, lastErr)
}

// classifyError maps a client error onto the failure taxonomy and decides
// whether another attempt may succeed.
func classifyError(err error) (mapped error, retry bool, delay time.Duration) {
	apiErr, ok := asAPIError(err)
	if !ok {
		if errors.Is(err, errEmptyResponse) {
			return err, true, 0
		}
		return &analysis.ProviderUnavailableError{Provider: providerName, Cause: err}, true, 0
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay = quotaDelay(apiErr)
		unavailable := &analysis.ProviderUnavailableError{Provider: providerName, RateLimited: true, RetryAfter: delay, Cause: err}
		return unavailable, delay <= maxInlineRetryDelay, delay
	case apiErr.Code >= 500:
		return &analysis.ProviderUnavailableError{Provider: providerName, Cause: err}, true, 0
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden,
		apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return &analysis.ConfigurationError{Component: providerName, Message: "api key was rejected", Cause: errors.New(apiErr.Status)}, false, 0
	case apiErr.Code == http.StatusNotFound:
		return &analysis.ConfigurationError{Component: providerName, Message: "model not found", Cause: err}, false, 0
	default:
		return fmt.Errorf("gemini api: %w", err), false, 0
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}

// quotaDelay reads the server-suggested retry delay from the error details or message.
func quotaDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}

	m := retryAfterRe.FindStringSubmatch(apiErr.Message)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(m[2], "ms") {
		return time.Duration(value * float64(time.Millisecond))
	}
	return time.Duration(value * float64(time.Second))
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func embeddingCount(resp *genai.EmbedContentResponse) int {
	if resp == nil {
		return 0
	}
	return len(resp.Embeddings)
}
