package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// PineconeGateway is a minimal REST client to a Pinecone index. The query
// text is embedded with the same embedder as the indexed documents.
type PineconeGateway struct {
	apiKey    string
	indexHost string
	namespace string
	embedder  provider.Provider
	client    *http.Client
}

// NewPineconeGateway creates a gateway against a Pinecone index host.
func NewPineconeGateway(cfg config.PineconeConfig, embedder provider.Provider) *PineconeGateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "default"
	}
	return &PineconeGateway{
		apiKey:    cfg.APIKey,
		indexHost: cfg.IndexHost,
		namespace: namespace,
		embedder:  embedder,
		client:    &http.Client{Timeout: timeout},
	}
}

type pineconeQueryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type pineconeQueryResponse struct {
	Matches []struct {
		ID       string  `json:"id"`
		Score    float64 `json:"score"`
		Metadata struct {
			Text string `json:"text"`
			URL  string `json:"url"`
		} `json:"metadata"`
	} `json:"matches"`
}

// Query embeds the text and returns the top-K scored matches with metadata.
func (g *PineconeGateway) Query(ctx context.Context, text string, topK int) ([]Match, error) {
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

	var resp pineconeQueryResponse
	err = g.postJSON(ctx, g.indexHost+"/query", pineconeQueryRequest{
		Vector:          vecs[0],
		TopK:            topK,
		Namespace:       g.namespace,
		IncludeMetadata: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Matches) == 0 {
		return nil, ErrNoMatches
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, Match{
			Text:   m.Metadata.Text,
			Source: m.Metadata.URL,
			Score:  m.Score,
		})
	}
	return matches, nil
}

type pineconeVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}

// Upsert writes documents and their embeddings into the index namespace.
func (g *PineconeGateway) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	vectors := make([]pineconeVector, 0, len(docs))
	for _, d := range docs {
		vectors = append(vectors, pineconeVector{
			ID:     d.ID,
			Values: d.Embedding,
			Metadata: map[string]string{
				"text": d.Text,
				"url":  d.Source,
			},
		})
	}
	body := map[string]interface{}{
		"vectors":   vectors,
		"namespace": g.namespace,
	}
	return g.postJSON(ctx, g.indexHost+"/vectors/upsert", body, nil)
}

func (g *PineconeGateway) postJSON(ctx context.Context, url string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinecone POST %s failed: %s", url, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
