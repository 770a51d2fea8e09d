package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/futig/docchat/internal/entity"
	pkgRetry "github.com/futig/docchat/internal/pkg/retry"
	"github.com/joho/godotenv"
)

const (
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
	RepositoryMemory   = "memory"

	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr         string        `env:"SERVER_ADDR" envDefault:":8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"5m"`
	RequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"5m"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Storage configuration
	RepositoryDriver string `env:"REPOSITORY_DRIVER" envDefault:"postgres"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"data/docchat.db"`
	StorageDir       string `env:"STORAGE_DIR" envDefault:"data/blobs"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingCfg  EmbeddingConfig  `envPrefix:"EMBEDDING_"`
	CompletionCfg CompletionConfig `envPrefix:"COMPLETION_"`

	// Pipeline configuration
	ChunkCfg     ChunkConfig     `envPrefix:"CHUNK_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`
	PromptsFile  string          `env:"PROMPTS_FILE"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type EmbeddingConfig struct {
	HTTPClientConfig
	Provider          string               `env:"PROVIDER" envDefault:"openai"`
	Model             string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	Dimensions        int                  `env:"DIMENSIONS" envDefault:"1536"`
	AzureEndpoint     string               `env:"AZURE_ENDPOINT"`
	AzureAPIVersion   string               `env:"AZURE_API_VERSION" envDefault:"2024-06-01"`
	MaxInputChars     int                  `env:"MAX_INPUT_CHARS" envDefault:"8000"`
	BatchSize         int                  `env:"BATCH_SIZE" envDefault:"16"`
	Concurrency       int                  `env:"CONCURRENCY" envDefault:"4"`
	RequestsPerSecond float64              `env:"REQUESTS_PER_SECOND" envDefault:"10"`
	Burst             int                  `env:"BURST" envDefault:"4"`
	CacheTTL          time.Duration        `env:"CACHE_TTL" envDefault:"1h"`
	Retry             pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type CompletionConfig struct {
	HTTPClientConfig
	Provider        string               `env:"PROVIDER" envDefault:"openai"`
	Model           string               `env:"MODEL" envDefault:"gpt-4o-mini"`
	AzureEndpoint   string               `env:"AZURE_ENDPOINT"`
	AzureAPIVersion string               `env:"AZURE_API_VERSION" envDefault:"2024-06-01"`
	MaxTokens       int                  `env:"MAX_TOKENS" envDefault:"1000"`
	Temperature     float64              `env:"TEMPERATURE" envDefault:"0.7"`
	Retry           pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"5m"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string        `env:"API_KEY"`
	Url                   string        `env:"BASE_URL"`
}

type ChunkConfig struct {
	Size    int `env:"SIZE" envDefault:"1000"`
	Overlap int `env:"OVERLAP" envDefault:"200"`
}

type RetrievalConfig struct {
	Limit     int     `env:"LIMIT" envDefault:"5"`
	Threshold float64 `env:"THRESHOLD" envDefault:"0.7"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"52428800"`   // 50 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"54525952"` // 52 MiB, multipart overhead
}

func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	_ = godotenv.Load(envFile)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrConfiguration, err)
	}

	cfg.Environment = environment

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var problems []string

	switch cfg.RepositoryDriver {
	case RepositoryPostgres:
		if cfg.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres repository")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			problems = append(problems, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			problems = append(problems, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	case RepositorySQLite:
		if cfg.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for the sqlite repository")
		}
	case RepositoryMemory:
	default:
		problems = append(problems, fmt.Sprintf("REPOSITORY_DRIVER must be one of postgres, sqlite, memory, got %q", cfg.RepositoryDriver))
	}

	if cfg.ChunkCfg.Size <= 0 {
		problems = append(problems, fmt.Sprintf("CHUNK_SIZE must be positive, got %d", cfg.ChunkCfg.Size))
	}
	if cfg.ChunkCfg.Overlap < 0 || cfg.ChunkCfg.Overlap >= cfg.ChunkCfg.Size {
		problems = append(problems, fmt.Sprintf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", cfg.ChunkCfg.Overlap))
	}
	if cfg.RetrievalCfg.Threshold < -1 || cfg.RetrievalCfg.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("RETRIEVAL_THRESHOLD must be in [-1, 1], got %v", cfg.RetrievalCfg.Threshold))
	}
	if cfg.RetrievalCfg.Limit < 1 {
		problems = append(problems, fmt.Sprintf("RETRIEVAL_LIMIT must be positive, got %d", cfg.RetrievalCfg.Limit))
	}

	emb := cfg.EmbeddingCfg
	if emb.BatchSize < 1 || emb.Concurrency < 1 {
		problems = append(problems, "EMBEDDING_BATCH_SIZE and EMBEDDING_CONCURRENCY must be positive")
	}
	if emb.MaxInputChars < 1 {
		problems = append(problems, "EMBEDDING_MAX_INPUT_CHARS must be positive")
	}
	if emb.RequestsPerSecond <= 0 || emb.Burst < 1 {
		problems = append(problems, "EMBEDDING_REQUESTS_PER_SECOND and EMBEDDING_BURST must be positive")
	}
	if emb.Retry.Attempts < 1 || cfg.CompletionCfg.Retry.Attempts < 1 {
		problems = append(problems, "RETRY_ATTEMPTS must be at least 1")
	}
	if cfg.CompletionCfg.MaxTokens < 1 {
		problems = append(problems, "COMPLETION_MAX_TOKENS must be positive")
	}

	if !cfg.EnableMocks {
		problems = append(problems, validateProvider("EMBEDDING", emb.Provider, emb.HTTPClientConfig, emb.AzureEndpoint, true)...)
		problems = append(problems, validateProvider("COMPLETION", cfg.CompletionCfg.Provider,
			cfg.CompletionCfg.HTTPClientConfig, cfg.CompletionCfg.AzureEndpoint, false)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", entity.ErrConfiguration, strings.Join(problems, "\n  - "))
	}

	return nil
}

func validateProvider(prefix, provider string, httpCfg HTTPClientConfig, azureEndpoint string, allowOllama bool) []string {
	var problems []string
	switch provider {
	case ProviderOpenAI, ProviderGemini:
		if httpCfg.Token == "" {
			problems = append(problems, prefix+"_API_KEY is required for provider "+provider)
		}
	case ProviderAzure:
		if httpCfg.Token == "" || azureEndpoint == "" {
			problems = append(problems, prefix+"_API_KEY and "+prefix+"_AZURE_ENDPOINT are required for provider azure")
		}
	case ProviderOllama:
		if !allowOllama {
			problems = append(problems, prefix+"_PROVIDER ollama is only supported for embeddings")
		} else if httpCfg.Url == "" {
			problems = append(problems, prefix+"_BASE_URL is required for provider ollama")
		}
	default:
		problems = append(problems, fmt.Sprintf("%s_PROVIDER %q is not supported", prefix, provider))
	}
	return problems
}

// IsConfigurationError reports whether err was caused by invalid settings.
func IsConfigurationError(err error) bool {
	return errors.Is(err, entity.ErrConfiguration)
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
