package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rohanthewiz/logger"
)

const (
	// Default OpenAI-compatible chat model
	defaultModel = "gpt-4o"
	// Default DuckDB database path
	defaultDBPath = "./propflow_data.duckdb"
)

// Config holds application configuration
type Config struct {
	OpenAIKey     string // API key for the language model provider
	Model         string // chat model name
	OpenAIBaseURL string // optional OpenAI-compatible endpoint override

	DataDir       string // directory of entity CSVs; empty means seeded demo data
	DBPath        string // DuckDB database file
	TemplatesFile string // optional YAML plan-template overlay

	MaxWorkers         int // worker pool size for parallel step groups
	ApprovalTimeoutSec int // 0 means wait indefinitely for a decision
	HistoryLimit       int // max retained execution history entries
}

// globalConfig holds the application configuration instance
var globalConfig *Config

// Initialize sets up the configuration from .env and environment variables
func Initialize() {
	// Load .env if present; env vars already set take precedence
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	globalConfig = &Config{
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		Model:              getEnv("PROPFLOW_MODEL", defaultModel),
		OpenAIBaseURL:      os.Getenv("PROPFLOW_OPENAI_BASE_URL"),
		DataDir:            os.Getenv("PROPFLOW_DATA_DIR"),
		DBPath:             getEnv("PROPFLOW_DB_PATH", defaultDBPath),
		TemplatesFile:      os.Getenv("PROPFLOW_TEMPLATES"),
		MaxWorkers:         getEnvInt("PROPFLOW_MAX_WORKERS", 4),
		ApprovalTimeoutSec: getEnvInt("PROPFLOW_APPROVAL_TIMEOUT", 0),
		HistoryLimit:       getEnvInt("PROPFLOW_HISTORY_LIMIT", 100),
	}
}

// Get returns the global configuration instance
func Get() *Config {
	if globalConfig == nil {
		Initialize()
	}
	return globalConfig
}

// getEnv returns the environment value or a default
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the environment value parsed as int, or a default
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Invalid integer in environment, using default", "key", key, "value", v)
		return def
	}
	return n
}
