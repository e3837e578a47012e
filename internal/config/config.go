package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	KnowledgeDir    string `mapstructure:"KNOWLEDGE_DIR"`
	ChunkSize       int    `mapstructure:"CHUNK_SIZE"`
	RetrievalTopK   int    `mapstructure:"RETRIEVAL_TOP_K"`
	ReindexSchedule string `mapstructure:"REINDEX_SCHEDULE"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	FHIRDBFile   string `mapstructure:"FHIR_DB_FILE"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DBMaxConns   int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns   int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL     string `mapstructure:"REDIS_URL"`

	LLMProvider    string        `mapstructure:"LLM_PROVIDER"`
	LLMModel       string        `mapstructure:"LLM_MODEL"`
	LLMAPIKey      string        `mapstructure:"LLM_API_KEY"`
	LLMBaseURL     string        `mapstructure:"LLM_BASE_URL"`
	LLMTimeout     time.Duration `mapstructure:"LLM_TIMEOUT"`
	LLMMaxTokens   int           `mapstructure:"LLM_MAX_TOKENS"`
	LLMTemperature float64       `mapstructure:"LLM_TEMPERATURE"`

	LiteratureURL string `mapstructure:"LITERATURE_URL"`

	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	BodyLimit       string `mapstructure:"BODY_LIMIT"`
	IngestBodyLimit string `mapstructure:"INGEST_BODY_LIMIT"`
}

var keys = []string{
	"PORT", "ENV",
	"KNOWLEDGE_DIR", "CHUNK_SIZE", "RETRIEVAL_TOP_K", "REINDEX_SCHEDULE",
	"STORE_BACKEND", "FHIR_DB_FILE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_BASE_URL", "LLM_TIMEOUT", "LLM_MAX_TOKENS", "LLM_TEMPERATURE",
	"LITERATURE_URL",
	"AUTH_SIGNING_KEY", "AUTH_ISSUER", "AUTH_AUDIENCE",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"BODY_LIMIT", "INGEST_BODY_LIMIT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("KNOWLEDGE_DIR", "./knowledge")
	v.SetDefault("CHUNK_SIZE", 900)
	v.SetDefault("RETRIEVAL_TOP_K", 6)
	v.SetDefault("STORE_BACKEND", StoreFile)
	v.SetDefault("FHIR_DB_FILE", "fhir_db.json")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("LLM_TIMEOUT", "20s")
	v.SetDefault("LLM_MAX_TOKENS", 500)
	v.SetDefault("LLM_TEMPERATURE", 0.2)
	v.SetDefault("LITERATURE_URL", "https://api.semanticscholar.org/graph/v1/paper/search")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("INGEST_BODY_LIMIT", "10M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LLMEnabled reports whether a generative backend is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLMProvider != ""
}

// Validate checks cross-field rules. The store backend must be known and
// have its connection URL, a configured LLM provider needs a key, and
// production refuses to run with open ingest and admin routes.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile:
		if c.FHIRDBFile == "" {
			return fmt.Errorf("FHIR_DB_FILE is required when STORE_BACKEND is %q", StoreFile)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", StorePostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND is %q", StoreRedis)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q, or %q, got %q", StoreFile, StorePostgres, StoreRedis, c.StoreBackend)
	}

	switch c.LLMProvider {
	case "":
	case "anthropic", "openai", "gemini":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required when LLM_PROVIDER is %q", c.LLMProvider)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be empty, \"anthropic\", \"openai\", or \"gemini\", got %q", c.LLMProvider)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.RetrievalTopK)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.IsProduction() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required in production; " +
			"refusing to start with unauthenticated ingest and admin routes")
	}

	return nil
}
