package retrieval_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
)

// scriptedEmbedder maps texts onto fixed vectors so similarity ordering in
// the test is deterministic.
type scriptedEmbedder struct {
	vectors map[string][]float32
}

func (e *scriptedEmbedder) Complete(ctx context.Context, prompt string, model string, temperature float64, stop []string) (string, error) {
	return "", errors.New("not implemented")
}

func (e *scriptedEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			return nil, errors.New("unscripted text: " + t)
		}
		out[i] = v
	}
	return out, nil
}

func TestPostgresGatewayRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("ragchat"),
		tcPostgres.WithUsername("ragchat"),
		tcPostgres.WithPassword("ragchat"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		t.Fatalf("create extension: %v", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE documents (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		embedding vector(3) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	embedder := &scriptedEmbedder{vectors: map[string][]float32{
		"go doc":    {1, 0, 0},
		"redis doc": {0, 1, 0},
		"about go":  {0.9, 0.1, 0},
	}}
	g, err := retrieval.NewPostgresGateway(ctx, dsn, embedder)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	defer g.Close()

	docs := []retrieval.Document{
		{ID: "1", Text: "go doc", Source: "https://go.dev", Embedding: []float32{1, 0, 0}},
		{ID: "2", Text: "redis doc", Source: "https://redis.io", Embedding: []float32{0, 1, 0}},
	}
	if err := g.Upsert(ctx, docs); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := g.Query(ctx, "about go", 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].Source != "https://go.dev" {
		t.Fatalf("expected the go document first, got %+v", matches)
	}
	if matches[0].Score <= 0.5 {
		t.Fatalf("cosine similarity of near-parallel vectors must be high, got %v", matches[0].Score)
	}

	// replacing a row by id keeps the table keyed
	docs[0].Text = "go doc updated"
	if err := g.Upsert(ctx, docs[:1]); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
}
