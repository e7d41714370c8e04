package retrieval

import (
	"context"
	"sync"

	"github.com/blevesearch/bleve"
)

// BleveGateway is a local in-memory keyword index. It serves development and
// test deployments where no external vector index is reachable. BM25-style
// scores are normalized by the best hit so they land in (0,1]; the top hit
// always scores exactly 1, so acceptance thresholds only bite on
// lower-ranked candidates.
type BleveGateway struct {
	index bleve.Index
	meta  map[string]Document
	mu    sync.RWMutex
}

type bleveDoc struct {
	Text string `json:"text"`
}

// NewBleveGateway creates an empty in-memory index.
func NewBleveGateway() (*BleveGateway, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &BleveGateway{index: index, meta: make(map[string]Document)}, nil
}

// Query searches the keyword index and returns normalized matches.
func (g *BleveGateway) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 1
	}
	query := bleve.NewQueryStringQuery(text)
	searchReq := bleve.NewSearchRequestOptions(query, topK, 0, false)
	res, err := g.index.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, ErrNoMatches
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	var matches []Match
	for _, hit := range res.Hits {
		doc := g.meta[hit.ID]
		score := hit.Score
		if res.MaxScore > 0 {
			score = hit.Score / res.MaxScore
		}
		matches = append(matches, Match{Text: doc.Text, Source: doc.Source, Score: score})
	}
	return matches, nil
}

// Upsert indexes documents, replacing any previous content per id.
func (g *BleveGateway) Upsert(ctx context.Context, docs []Document) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range docs {
		g.meta[d.ID] = d
		if err := g.index.Index(d.ID, bleveDoc{Text: d.Text}); err != nil {
			return err
		}
	}
	return nil
}
