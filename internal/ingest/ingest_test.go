package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
)

type stubEmbedder struct{}

func (stubEmbedder) Complete(ctx context.Context, prompt string, model string, temperature float64, stop []string) (string, error) {
	return "", errors.New("not implemented")
}

func (stubEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

type captureUpserter struct {
	docs []retrieval.Document
}

func (u *captureUpserter) Upsert(ctx context.Context, docs []retrieval.Document) error {
	u.docs = append(u.docs, docs...)
	return nil
}

const testPage = `<!DOCTYPE html>
<html><head><title>Go</title></head>
<body><article>
<p>Go is a statically typed compiled language. It was designed at Google.
Goroutines make concurrency cheap. Channels carry values between them.
The standard library covers networking. Error handling is explicit.</p>
</article></body></html>`

func TestIngestURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	target := &captureUpserter{}
	ing := New(stubEmbedder{}, target)
	n, err := ing.IngestURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n == 0 || n != len(target.docs) {
		t.Fatalf("reported %d chunks, upserted %d", n, len(target.docs))
	}
	for _, d := range target.docs {
		if d.ID == "" || d.Text == "" || len(d.Embedding) == 0 {
			t.Fatalf("incomplete document: %+v", d)
		}
		if d.Source != srv.URL {
			t.Fatalf("document source must be the page url, got %q", d.Source)
		}
	}
}

func TestIngestURLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ing := New(stubEmbedder{}, &captureUpserter{})
	if _, err := ing.IngestURL(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}
