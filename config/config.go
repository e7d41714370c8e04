package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ragchat service
type Config struct {
	General      GeneralConfig      `mapstructure:"general"`
	Server       ServerConfig       `mapstructure:"server"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Retrieval    RetrievalConfig    `mapstructure:"retrieval"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Storage      StorageConfig      `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
	// JWTSecret enables bearer auth on /api when set
	JWTSecret string `mapstructure:"jwt_secret"`
	// AdminPasswordHash is a bcrypt hash checked by POST /api/auth/login
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type           string        `mapstructure:"type"` // openai, anthropic
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// LLMRoutingConfig defines which model serves which task
type LLMRoutingConfig struct {
	Chatting string `mapstructure:"chatting"` // conversation completions
	Fallback string `mapstructure:"fallback"`
}

// RetrievalConfig selects and configures the retrieval gateway
type RetrievalConfig struct {
	// Provider is one of: pinecone, postgres, bleve
	Provider string               `mapstructure:"provider"`
	Pinecone PineconeConfig       `mapstructure:"pinecone"`
	Cache    RetrievalCacheConfig `mapstructure:"cache"`
}

// PineconeConfig contains Pinecone index connection settings
type PineconeConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	IndexHost string        `mapstructure:"index_host"`
	Namespace string        `mapstructure:"namespace"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (p PineconeConfig) Validate() error {
	if strings.TrimSpace(p.IndexHost) == "" {
		return fmt.Errorf("retrieval.pinecone.index_host required")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("retrieval.pinecone.api_key required")
	}
	return nil
}

// RetrievalCacheConfig controls the Redis query cache in front of the gateway
type RetrievalCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ConversationConfig holds per-session generation defaults and registry bounds
type ConversationConfig struct {
	// DefaultTemperature applies when a request omits temperature
	DefaultTemperature float64 `mapstructure:"default_temperature"`
	// DefaultThreshold applies when a request omits threshold
	DefaultThreshold float64        `mapstructure:"default_threshold"`
	Registry         RegistryConfig `mapstructure:"registry"`
}

func (c ConversationConfig) Validate() error {
	if c.DefaultThreshold < 0 || c.DefaultThreshold > 1 {
		return fmt.Errorf("conversation.default_threshold must be within [0,1]")
	}
	return nil
}

// RegistryConfig bounds the in-memory session registry
type RegistryConfig struct {
	MaxSessions   int           `mapstructure:"max_sessions"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// StorageConfig contains storage backends used by the gateway and cache
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DSN builds a postgres connection string from URL or discrete fields.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	host := p.Host
	port := p.Port
	ssl := p.SSLMode
	if host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	if port == "" {
		port = "5432"
	}
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, host, port, p.DBName, ssl), nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("retrieval.provider", "pinecone")
	viper.SetDefault("retrieval.pinecone.namespace", "default")
	viper.SetDefault("retrieval.pinecone.timeout", 15*time.Second)
	viper.SetDefault("retrieval.cache.ttl", 10*time.Minute)
	viper.SetDefault("conversation.default_temperature", 0.1)
	viper.SetDefault("conversation.default_threshold", 0.3)
	viper.SetDefault("conversation.registry.max_sessions", 1024)
	viper.SetDefault("conversation.registry.session_ttl", 24*time.Hour)
	viper.SetDefault("conversation.registry.sweep_interval", 5*time.Minute)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("RAGCHAT")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (RAGCHAT_*)

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Conversation.Validate(); err != nil {
		panic(err)
	}
	return &config
}
