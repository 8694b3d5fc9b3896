package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	Port           int
	CatalogPath    string
	GeminiAPIKey   string // empty disables the fallback oracle
	GeminiModel    string
	OracleTimeout  time.Duration
	SessionTTL     time.Duration
	RedisURL       string
	RedisPassword  string
	TranscriptKey  string
	AllowedOrigins []string
}

// Load reads configuration from environment variables with defaults
func Load() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:           8080,
		CatalogPath:    "catalog.json",
		GeminiModel:    "gemini-2.5-flash",
		OracleTimeout:  15 * time.Second,
		SessionTTL:     20 * time.Minute,
		RedisURL:       "localhost:6379",
		RedisPassword:  "",
		TranscriptKey:  "barback:transcript",
		AllowedOrigins: []string{"*"},
	}

	// Optional: GEMINI_API_KEY (without it, unmatched queries get the
	// terminal fallback reply instead of a generated one)
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: CATALOG_PATH
	if path := os.Getenv("CATALOG_PATH"); path != "" {
		config.CatalogPath = path
	}

	// Optional: GEMINI_MODEL
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		config.GeminiModel = model
	}

	// Optional: ORACLE_TIMEOUT (in seconds)
	if timeout := os.Getenv("ORACLE_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ORACLE_TIMEOUT: %w", err)
		}
		config.OracleTimeout = time.Duration(t) * time.Second
	}

	// Optional: SESSION_TTL (in minutes)
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		t, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		config.SessionTTL = time.Duration(t) * time.Minute
	}

	// Optional: REDIS_URL
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}

	// Optional: REDIS_PASSWORD
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: TRANSCRIPT_KEY (Redis list for turn transcripts)
	if key := os.Getenv("TRANSCRIPT_KEY"); key != "" {
		config.TranscriptKey = key
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	return config, nil
}
