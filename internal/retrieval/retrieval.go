package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// ErrNoMatches reports that the index returned nothing for a query. It is
// distinct from a low-scoring match, which is a successful query.
var ErrNoMatches = errors.New("no matches in index")

// Match is a scored candidate passage returned by a gateway, ordered by
// descending score.
type Match struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// Document is an indexable passage with its embedding.
type Document struct {
	ID        string
	Text      string
	Source    string
	Embedding []float32
}

// Gateway answers top-K queries against a vector or keyword index.
type Gateway interface {
	Query(ctx context.Context, text string, topK int) ([]Match, error)
}

// Upserter is implemented by gateways that accept documents for indexing.
type Upserter interface {
	Upsert(ctx context.Context, docs []Document) error
}

// NewGateway creates a retrieval gateway based on configuration, optionally
// wrapped with a Redis query cache.
func NewGateway(ctx context.Context, cfg *config.Config, p provider.Provider) (Gateway, error) {
	var gw Gateway
	switch cfg.Retrieval.Provider {
	case "pinecone":
		if err := cfg.Retrieval.Pinecone.Validate(); err != nil {
			return nil, err
		}
		gw = NewPineconeGateway(cfg.Retrieval.Pinecone, p)
	case "postgres":
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		pg, err := NewPostgresGateway(ctx, dsn, p)
		if err != nil {
			return nil, err
		}
		gw = pg
	case "bleve":
		bg, err := NewBleveGateway()
		if err != nil {
			return nil, err
		}
		gw = bg
	default:
		return nil, fmt.Errorf("unsupported retrieval provider: %s", cfg.Retrieval.Provider)
	}

	if cfg.Retrieval.Cache.Enabled {
		rdb, err := redisConn(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("retrieval cache: %w", err)
		}
		gw = NewCachedGateway(gw, rdb, cfg.Retrieval.Cache.TTL)
	}
	return gw, nil
}

func redisConn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		DialTimeout: timeout,
		Password:    cfg.Password,
		DB:          cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Host, cfg.Port, err)
	}
	log.Printf("redis connected -> %s:%s db=%d", cfg.Host, cfg.Port, cfg.DB)
	return client, nil
}
