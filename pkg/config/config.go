package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	NATS      NATSConfig
	RateLimit RateLimitConfig
	Fraud     FraudConfig
	Search    SearchConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in hours
}

// NATSConfig holds NATS event bus configuration
type NATSConfig struct {
	URL     string
	Enabled bool
}

// RateLimitConfig holds rate limiting configuration for the public verify endpoint
type RateLimitConfig struct {
	Enabled       bool
	WindowSeconds int
	Limit         int
	RedisPrefix   string
}

// FraudConfig holds fraud detection thresholds and windows
type FraudConfig struct {
	BurstWindowSeconds       int
	BurstLowThreshold        int
	BurstMediumThreshold     int
	BurstHighThreshold       int
	DiversityWindowSeconds   int
	DiversityMediumThreshold int
	DiversityHighThreshold   int
	AlertCooldownSeconds     int
	WorkerCount              int
	WorkerQueueSize          int
}

// SearchConfig holds smart-search configuration
type SearchConfig struct {
	CandidateLimit  int
	CacheTTLSeconds int
	MinSimilarity   float64
	MaxSuggestions  int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "certify"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Expiration: getEnvAsInt("JWT_EXPIRATION", 24),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW", 60),
			Limit:         getEnvAsInt("RATE_LIMIT_MAX", 30),
			RedisPrefix:   getEnv("RATE_LIMIT_PREFIX", "rl"),
		},
		Fraud: FraudConfig{
			BurstWindowSeconds:       getEnvAsInt("FRAUD_BURST_WINDOW", 300),
			BurstLowThreshold:        getEnvAsInt("FRAUD_BURST_LOW", 3),
			BurstMediumThreshold:     getEnvAsInt("FRAUD_BURST_MEDIUM", 5),
			BurstHighThreshold:       getEnvAsInt("FRAUD_BURST_HIGH", 15),
			DiversityWindowSeconds:   getEnvAsInt("FRAUD_DIVERSITY_WINDOW", 3600),
			DiversityMediumThreshold: getEnvAsInt("FRAUD_DIVERSITY_MEDIUM", 3),
			DiversityHighThreshold:   getEnvAsInt("FRAUD_DIVERSITY_HIGH", 5),
			AlertCooldownSeconds:     getEnvAsInt("FRAUD_ALERT_COOLDOWN", 300),
			WorkerCount:              getEnvAsInt("FRAUD_WORKER_COUNT", 4),
			WorkerQueueSize:          getEnvAsInt("FRAUD_WORKER_QUEUE", 256),
		},
		Search: SearchConfig{
			CandidateLimit:  getEnvAsInt("SEARCH_CANDIDATE_LIMIT", 500),
			CacheTTLSeconds: getEnvAsInt("SEARCH_CACHE_TTL", 30),
			MinSimilarity:   getEnvAsFloat("SEARCH_MIN_SIMILARITY", 40),
			MaxSuggestions:  getEnvAsInt("SEARCH_MAX_SUGGESTIONS", 10),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection URL (used by migrations)
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
