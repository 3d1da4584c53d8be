package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Redis configuration
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// JWT configuration
	JWT struct {
		Secret      string
		ExpiryHours time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		TrustedProxies []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// In-memory cache configuration
	Cache struct {
		TTL         time.Duration
		PurgeWindow time.Duration
		MaxSize     int
	}

	// Agent configuration
	Agent struct {
		HourlyQuota       int
		ClassifyModel     string
		ClassifyTemp      float64
		MatchTemp         float64
		DraftTemp         float64
		MaxDraftTokens    int
		ScoreThreshold    int
		SearchResultLimit int
		DefaultPeriodDays float64
	}

	// Model gateway configuration
	Gateway struct {
		BaseURL    string
		APIKey     string
		EmbedModel string
		Timeout    time.Duration
		MaxRetries int
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8081")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "inbox-agent")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
		instance.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

		// Redis config
		instance.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
		instance.Redis.Password = getEnvString("REDIS_PASSWORD", "")
		instance.Redis.DB = getEnvInt("REDIS_DB", 0)

		// JWT config
		instance.JWT.Secret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
		instance.JWT.ExpiryHours = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

		// Security config
		instance.Security.RateLimit = getEnvFloat("RATE_LIMIT", 5)
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
		instance.Security.TrustedProxies = getEnvStringSlice("TRUSTED_PROXIES", []string{"127.0.0.1"})
		instance.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Cache config
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)

		// Agent config
		instance.Agent.HourlyQuota = getEnvInt("AGENT_HOURLY_QUOTA", 100)
		instance.Agent.ClassifyModel = getEnvString("AGENT_CLASSIFY_MODEL", "gpt-4o-mini")
		instance.Agent.ClassifyTemp = getEnvFloat("AGENT_CLASSIFY_TEMP", 0.3)
		instance.Agent.MatchTemp = getEnvFloat("AGENT_MATCH_TEMP", 0.2)
		instance.Agent.DraftTemp = getEnvFloat("AGENT_DRAFT_TEMP", 0.7)
		instance.Agent.MaxDraftTokens = getEnvInt("AGENT_MAX_DRAFT_TOKENS", 120)
		instance.Agent.ScoreThreshold = getEnvInt("AGENT_SCORE_THRESHOLD", 7)
		instance.Agent.SearchResultLimit = getEnvInt("AGENT_SEARCH_RESULT_LIMIT", 10)
		instance.Agent.DefaultPeriodDays = getEnvFloat("AGENT_DEFAULT_PERIOD_DAYS", 7)

		// Model gateway config
		instance.Gateway.BaseURL = getEnvString("MODEL_API_URL", "https://api.openai.com/v1")
		instance.Gateway.APIKey = getEnvString("OPENAI_API_KEY", "")
		instance.Gateway.EmbedModel = getEnvString("MODEL_EMBED_MODEL", "text-embedding-3-small")
		instance.Gateway.Timeout = getEnvDuration("MODEL_API_TIMEOUT", 30*time.Second)
		instance.Gateway.MaxRetries = getEnvInt("MODEL_API_MAX_RETRIES", 2)
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
