package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/reasm-dev/reasm/internal/analysis"
)

const (
	pineconeProvider = "pinecone"
	metadataSkillKey = "skill"
)

// PineconeConfig configures the hosted index client.
type PineconeConfig struct {
	// Host is the index endpoint, e.g. skills-abc123.svc.us-east-1.pinecone.io.
	Host    string
	APIKey  string
	Timeout time.Duration
}

// namespaceConn is the part of *pinecone.IndexConnection the index uses.
type namespaceConn interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	DeleteAllVectorsInNamespace(ctx context.Context) error
	Close() error
}

// Pinecone stores vectors in a Pinecone serverless index, one Pinecone
// namespace per index namespace.
type Pinecone struct {
	host    string
	timeout time.Duration
	dial    func(namespace string) (namespaceConn, error)
	logger  *zap.Logger

	mu    sync.Mutex
	conns map[string]namespaceConn
}

// NewPinecone validates cfg and returns a client. Connections are opened lazily per namespace.
func NewPinecone(cfg PineconeConfig, logger *zap.Logger) (*Pinecone, error) {
	host := strings.TrimSpace(cfg.Host)
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		return nil, &analysis.ConfigurationError{Component: pineconeProvider, Message: "index host is not configured"}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &analysis.ConfigurationError{Component: pineconeProvider, Message: "api key is not configured"}
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, &analysis.ConfigurationError{Component: pineconeProvider, Message: "failed to create client", Cause: err}
	}

	p := newPinecone(host, cfg.Timeout, func(namespace string) (namespaceConn, error) {
		conn, err := client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}, logger)
	return p, nil
}

func newPinecone(host string, timeout time.Duration, dial func(string) (namespaceConn, error), logger *zap.Logger) *Pinecone {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Pinecone{
		host:    host,
		timeout: timeout,
		dial:    dial,
		logger:  logger,
		conns:   make(map[string]namespaceConn),
	}
}

func (p *Pinecone) Upsert(ctx context.Context, namespace string, records []Record) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if len(records) == 0 {
		return nil
	}

	vectors := make([]*pinecone.Vector, len(records))
	for i, rec := range records {
		metadata, err := structpb.NewStruct(map[string]any{metadataSkillKey: string(rec.Skill)})
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", rec.ID, err)
		}
		values := append([]float32(nil), rec.Vector...)
		vectors[i] = &pinecone.Vector{Id: rec.ID, Values: &values, Metadata: metadata}
	}

	conn, err := p.conn(namespace)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	count, err := conn.UpsertVectors(callCtx, vectors)
	if err != nil {
		return p.classify(ctx, "upsert", err)
	}
	p.logger.Debug("pinecone upsert", zap.String("namespace", namespace), zap.Uint32("count", count))
	return nil
}

func (p *Pinecone) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Candidate, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}
	if topK <= 0 {
		return []Candidate{}, nil
	}

	conn, err := p.conn(namespace)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := conn.QueryByVectorValues(callCtx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, p.classify(ctx, "query", err)
	}

	out := make([]Candidate, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		var skill string
		if m.Vector.Metadata != nil {
			skill = m.Vector.Metadata.GetFields()[metadataSkillKey].GetStringValue()
		}
		out = append(out, Candidate{
			ID:         m.Vector.Id,
			Skill:      analysis.SkillTerm(skill),
			Similarity: float64(m.Score),
			Namespace:  namespace,
		})
	}
	return out, nil
}

// DeleteAll drops every vector of namespace and releases its connection.
func (p *Pinecone) DeleteAll(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	conn, err := p.conn(namespace)
	if err != nil {
		return err
	}
	defer p.release(namespace)

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = conn.DeleteAllVectorsInNamespace(callCtx)
	// A namespace that was never written does not exist yet.
	if status.Code(unwrapStatus(err)) == codes.NotFound {
		return nil
	}
	if err != nil {
		return p.classify(ctx, "delete", err)
	}
	return nil
}

func (p *Pinecone) Close() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[string]namespaceConn)
	p.mu.Unlock()

	var errs []error
	for _, conn := range conns {
		errs = append(errs, conn.Close())
	}
	return errors.Join(errs...)
}

func (p *Pinecone) conn(namespace string) (namespaceConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[namespace]; ok {
		return conn, nil
	}
	conn, err := p.dial(namespace)
	if err != nil {
		return nil, &analysis.ProviderUnavailableError{Provider: pineconeProvider, Cause: err}
	}
	p.conns[namespace] = conn
	return conn, nil
}

func (p *Pinecone) release(namespace string) {
	p.mu.Lock()
	conn, ok := p.conns[namespace]
	delete(p.conns, namespace)
	p.mu.Unlock()

	if ok {
		if err := conn.Close(); err != nil {
			p.logger.Debug("failed to close pinecone connection", zap.String("namespace", namespace), zap.Error(err))
		}
	}
}

// classify maps an SDK failure onto the error taxonomy. ctx is the caller's
// context, so the per-call timeout counts as an unavailable provider.
func (p *Pinecone) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	st := unwrapStatus(err)
	p.logger.Debug("bad response from pinecone",
		zap.String("operation", op),
		zap.String("code", status.Code(st).String()),
		zap.Error(err),
	)

	switch status.Code(st) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return &analysis.ConfigurationError{Component: pineconeProvider, Message: "api key was rejected", Cause: err}
	case codes.ResourceExhausted:
		return &analysis.ProviderUnavailableError{Provider: pineconeProvider, RateLimited: true, Cause: err}
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return fmt.Errorf("pinecone %s: %w", op, err)
	default:
		return &analysis.ProviderUnavailableError{Provider: pineconeProvider, Cause: err}
	}
}

// unwrapStatus finds a gRPC status anywhere in err's chain. Errors without
// one come back as an Unknown status.
func unwrapStatus(err error) error {
	if err == nil {
		return nil
	}
	var withStatus interface{ GRPCStatus() *status.Status }
	if errors.As(err, &withStatus) {
		return withStatus.GRPCStatus().Err()
	}
	return status.Error(codes.Unknown, err.Error())
}
