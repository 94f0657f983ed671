package config

import (
	"os"
	"strconv"
	"strings"
)

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// EmbedderConfig holds embedding endpoint settings.
type EmbedderConfig struct {
	URL       string
	Model     string
	Timeout   int // seconds
	CacheSize int
	CacheTTL  int // minutes
}

// GeneratorConfig holds generation endpoint settings.
type GeneratorConfig struct {
	URL     string
	Model   string
	Timeout int // seconds
}

// RerankConfig holds reranker endpoint settings.
type RerankConfig struct {
	URL     string
	Model   string
	Timeout int // seconds
	TopN    int
}

// RetrievalConfig holds retrieval-stage parameters.
type RetrievalConfig struct {
	TopK int
}

// IngestConfig holds ingestion parameters.
type IngestConfig struct {
	BatchSize       int
	EmbedRatePerSec float64
}

// ChatConfig holds conversation-pipeline behavior switches.
type ChatConfig struct {
	// SerializeRequests runs each ask pipeline under a lock so concurrent
	// requests cannot interleave mutations of the shared history.
	SerializeRequests bool
}

// Config is the process configuration, loaded from environment variables.
type Config struct {
	Env       string
	Port      string
	DB        DBConfig
	Embedder  EmbedderConfig
	Generator GeneratorConfig
	Rerank    RerankConfig
	Retrieval RetrievalConfig
	Ingest    IngestConfig
	Chat      ChatConfig
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "5000"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "docuchat"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "docuchat"),
			Name:     getEnv("DB_NAME", "docuchat"),
		},
		Embedder: EmbedderConfig{
			URL:       getEnv("EMBEDDER_URL", "http://localhost:11434"),
			Model:     getEnv("EMBEDDER_MODEL", "embeddinggemma"),
			Timeout:   getEnvInt("EMBEDDER_TIMEOUT", 30),
			CacheSize: getEnvInt("EMBEDDER_CACHE_SIZE", 256),
			CacheTTL:  getEnvInt("EMBEDDER_CACHE_TTL_MINUTES", 30),
		},
		Generator: GeneratorConfig{
			URL:     getEnv("GENERATOR_URL", "http://localhost:11434"),
			Model:   getEnv("GENERATOR_MODEL", "gemma3:4b"),
			Timeout: getEnvInt("GENERATOR_TIMEOUT", 120),
		},
		Rerank: RerankConfig{
			URL:     getEnv("RERANK_URL", "http://localhost:8001"),
			Model:   getEnv("RERANK_MODEL", "bge-reranker-v2-m3"),
			Timeout: getEnvInt("RERANK_TIMEOUT", 30),
			TopN:    getEnvInt("RERANK_TOP_N", 5),
		},
		Retrieval: RetrievalConfig{
			TopK: getEnvInt("RETRIEVAL_TOP_K", 5),
		},
		Ingest: IngestConfig{
			BatchSize:       getEnvInt("INGEST_BATCH_SIZE", 16),
			EmbedRatePerSec: getEnvFloat("INGEST_EMBED_RATE_PER_SEC", 4.0),
		},
		Chat: ChatConfig{
			SerializeRequests: getEnvBool("CHAT_SERIALIZE_REQUESTS", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
