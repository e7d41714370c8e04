package ingest

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// Ingestor fetches pages, extracts readable text, chunks it and indexes the
// chunks through an upsert-capable gateway.
type Ingestor struct {
	embedder provider.Provider
	target   retrieval.Upserter
	chunker  *Chunker
	client   *http.Client
	logger   *log.Logger
}

// New creates an Ingestor writing into target.
func New(embedder provider.Provider, target retrieval.Upserter) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		target:   target,
		chunker:  NewChunker(5, 1),
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   log.New(log.Writer(), "[INGEST] ", log.LstdFlags),
	}
}

// IngestURL fetches one page and indexes its readable content. It returns
// the number of chunks written.
func (g *Ingestor) IngestURL(ctx context.Context, pageURL string) (int, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return 0, fmt.Errorf("invalid url %q: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	chunks := g.chunker.Chunk(article.TextContent)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no readable content at %s", pageURL)
	}

	vecs, err := g.embedder.CreateEmbedding(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vecs))
	}

	docs := make([]retrieval.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, retrieval.Document{
			ID:        uuid.NewString(),
			Text:      chunk,
			Source:    pageURL,
			Embedding: vecs[i],
		})
	}
	if err := g.target.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}

	g.logger.Printf("indexed %s: %d chunks (%s)", pageURL, len(docs), article.Title)
	return len(docs), nil
}
