package retrieval

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/mohammad-safakhou/ragchat/provider"
)

// PostgresGateway answers queries against a pgvector-backed documents table.
// Scores are cosine similarity mapped into [0,1].
type PostgresGateway struct {
	db       *sql.DB
	embedder provider.Provider
}

// NewPostgresGateway opens the database and verifies connectivity. The
// documents table is created by migrations (see migrations/).
func NewPostgresGateway(ctx context.Context, dsn string, embedder provider.Provider) (*PostgresGateway, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PostgresGateway{db: db, embedder: embedder}, nil
}

// Query embeds the text and returns the top-K nearest documents by cosine
// distance, ordered by descending similarity.
func (g *PostgresGateway) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 1
	}
	vecs, err := g.embedder.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embed query: empty embedding response")
	}

	rows, err := g.db.QueryContext(ctx, `
SELECT content, url, 1 - (embedding <=> $1) AS score
FROM documents
ORDER BY embedding <=> $1
LIMIT $2`, pgvector.NewVector(vecs[0]), topK)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.Text, &m.Source, &m.Score); err != nil {
			return nil, err
		}
		if m.Score < 0 {
			m.Score = 0
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	return matches, nil
}

// Upsert writes documents and their embeddings, replacing existing rows by id.
func (g *PostgresGateway) Upsert(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		_, err := g.db.ExecContext(ctx, `
INSERT INTO documents (id, content, url, embedding, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (id) DO UPDATE SET
  content = EXCLUDED.content,
  url = EXCLUDED.url,
  embedding = EXCLUDED.embedding,
  updated_at = NOW()`, d.ID, d.Text, d.Source, pgvector.NewVector(d.Embedding))
		if err != nil {
			return fmt.Errorf("upsert document %s: %w", d.ID, err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (g *PostgresGateway) Close() error { return g.db.Close() }
