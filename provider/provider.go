package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mohammad-safakhou/ragchat/config"
	openai_provider "github.com/mohammad-safakhou/ragchat/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// Provider is the interface that all LLM implementations must satisfy.
// Complete must stop generation at the first occurrence of any stop
// sequence (exclusive), or the provider's length cap, whichever is first.
type Provider interface {
	Complete(ctx context.Context, prompt string, model string, temperature float64, stop []string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration.
// Provider entries are considered in sorted key order so the selection is
// stable across runs.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	if len(cfg.Providers) == 0 {
		return nil, errors.New("no LLM providers configured")
	}
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := cfg.Providers[name]
		switch Client(p.Type) {
		case OpenAI:
			if p.APIKey == "" {
				return nil, errors.New("openai api_key not configured")
			}
			return openai_provider.NewClient(p.APIKey, p.BaseURL, p.EmbeddingModel, p.MaxTokens, p.Timeout), nil
		case Anthropic:
			return nil, errors.New("anthropic client not implemented yet")
		default:
			return nil, fmt.Errorf("unsupported LLM provider type: %s", p.Type)
		}
	}
	return nil, errors.New("no valid LLM providers found")
}
