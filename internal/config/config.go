package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	LogFile            string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// StoreBackend selects the key-value persistence: memory, redis or postgres.
	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	VisitorTokenSecret string
	VisitorCookieTTL   time.Duration
	SessionIdleTTL     time.Duration
	SessionSweepEvery  time.Duration

	// Landing page timings
	TourSettleDelay        time.Duration
	TypingDelayMin         time.Duration
	TypingDelayMax         time.Duration
	PaymentProcessingDelay time.Duration
	NotificationTTL        time.Duration
	NotificationFadeOut    time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is honoured but never overrides real environment values.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "memory"))),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		VisitorTokenSecret: getEnv("VISITOR_TOKEN_SECRET", ""),
		VisitorCookieTTL:   getEnvAsDuration("VISITOR_COOKIE_TTL", 30*24*time.Hour),
		SessionIdleTTL:     getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepEvery:  getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),

		TourSettleDelay:        getEnvAsDuration("TOUR_SETTLE_DELAY", 500*time.Millisecond),
		TypingDelayMin:         getEnvAsDuration("DEMO_TYPING_DELAY_MIN", time.Second),
		TypingDelayMax:         getEnvAsDuration("DEMO_TYPING_DELAY_MAX", 2*time.Second),
		PaymentProcessingDelay: getEnvAsDuration("PAYMENT_PROCESSING_DELAY", 3*time.Second),
		NotificationTTL:        getEnvAsDuration("NOTIFICATION_TTL", 5*time.Second),
		NotificationFadeOut:    getEnvAsDuration("NOTIFICATION_FADE_OUT", 300*time.Millisecond),
	}
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
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

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
