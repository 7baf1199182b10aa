package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Market data collaborator
	MarketDataURL    string
	MarketDataAPIKey string

	// Payoff calculator collaborator
	CalculatorURL    string
	CalculatorAPIKey string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// LLM configuration
	LLM LLMConfig

	// Pipeline configuration
	Pipeline PipelineConfig
}

// LLMConfig holds narrative classifier LLM settings
type LLMConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Model    string
}

// PipelineConfig holds flow filters and pipeline thresholds
type PipelineConfig struct {
	// Flow alert filters
	TickerSymbol string // optional: restrict to one ticker
	Limit        int    // max alerts fetched
	MinPremium   int    // minimum reported premium in USD
	MinSize      int    // minimum contract size, 0 = unset
	MaxDTE       int    // maximum days to expiry
	RuleNames    []string

	// IV filter
	IVPercentileThreshold float64

	// Batch fan-out
	BatchWorkers int

	// Narrative cache TTL in minutes, 0 disables caching
	NarrativeCacheTTLMinutes int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		MarketDataURL:    getEnvOrDefault("MARKET_DATA_URL", "http://localhost:8090"),
		MarketDataAPIKey: os.Getenv("MARKET_DATA_API_KEY"),

		CalculatorURL:    getEnvOrDefault("CALCULATOR_URL", "http://localhost:8091"),
		CalculatorAPIKey: os.Getenv("CALCULATOR_API_KEY"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		LLM: LLMConfig{
			Enabled:  getEnvOrDefault("LLM_ENABLED", "false") == "true",
			Endpoint: getEnvOrDefault("LLM_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:   getEnvOrDefault("LLM_API_KEY", ""),
			Model:    getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		},

		Pipeline: PipelineConfig{
			TickerSymbol: os.Getenv("FLOW_TICKER_SYMBOL"),
			Limit:        getEnvInt("FLOW_LIMIT", 200),
			MinPremium:   getEnvInt("FLOW_MIN_PREMIUM", 50000),
			MinSize:      getEnvInt("FLOW_MIN_SIZE", 0),
			MaxDTE:       getEnvInt("FLOW_MAX_DTE", 90),
			RuleNames:    getEnvList("FLOW_RULE_NAMES"),

			IVPercentileThreshold: getEnvFloat("IV_PERCENTILE_THRESHOLD", 70.0),

			BatchWorkers: getEnvInt("BATCH_WORKERS", 8),

			NarrativeCacheTTLMinutes: getEnvInt("NARRATIVE_CACHE_TTL", 30),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvList gets a comma-separated environment variable as a string slice
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
