package vectorindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/reasm-dev/reasm/internal/analysis"
)

const pgvectorProvider = "pgvector"

// PGVector stores vectors in PostgreSQL using the pgvector extension.
type PGVector struct {
	pool *pgxpool.Pool
}

// ConnectPGVector opens a pool and verifies the connection.
func ConnectPGVector(ctx context.Context, databaseURL string) (*PGVector, error) {
	if databaseURL == "" {
		return nil, &analysis.ConfigurationError{Component: pgvectorProvider, Message: "database url is not configured"}
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &analysis.ConfigurationError{Component: pgvectorProvider, Message: "invalid database url", Cause: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &analysis.ProviderUnavailableError{Provider: pgvectorProvider, Cause: fmt.Errorf("failed to ping database: %w", err)}
	}

	return &PGVector{pool: pool}, nil
}

// EnsureSchema creates the extension and the vectors table when missing.
func (p *PGVector) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS skill_vectors (
			namespace  TEXT NOT NULL,
			id         TEXT NOT NULL,
			skill      TEXT NOT NULL,
			embedding  vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (p *PGVector) Upsert(ctx context.Context, namespace string, records []Record) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(
			`INSERT INTO skill_vectors (namespace, id, skill, embedding)
			 VALUES ($1, $2, $3, $4::vector)
			 ON CONFLICT (namespace, id) DO UPDATE SET skill = $3, embedding = $4::vector, created_at = NOW()`,
			namespace, rec.ID, string(rec.Skill), pgvector.NewVector(rec.Vector),
		)
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return p.unavailable("failed to upsert vectors", err)
	}
	return nil
}

func (p *PGVector) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Candidate, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}
	if topK <= 0 {
		return []Candidate{}, nil
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id, skill, 1 - (embedding <=> $2::vector) AS similarity
		 FROM skill_vectors
		 WHERE namespace = $1
		 ORDER BY embedding <=> $2::vector, created_at, id
		 LIMIT $3`,
		namespace, pgvector.NewVector(vector), topK,
	)
	if err != nil {
		return nil, p.unavailable("failed to query vectors", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			c     Candidate
			skill string
		)
		if err := rows.Scan(&c.ID, &skill, &c.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		c.Skill = analysis.SkillTerm(skill)
		c.Namespace = namespace
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, p.unavailable("failed to read candidates", err)
	}

	return out, nil
}

func (p *PGVector) DeleteAll(ctx context.Context, namespace string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM skill_vectors WHERE namespace = $1`, namespace); err != nil {
		return p.unavailable("failed to delete namespace", err)
	}
	return nil
}

func (p *PGVector) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PGVector) unavailable(msg string, err error) error {
	return &analysis.ProviderUnavailableError{Provider: pgvectorProvider, Cause: fmt.Errorf("%s: %w", msg, err)}
}
