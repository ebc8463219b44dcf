package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TOUR_SETTLE_DELAY", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 500*time.Millisecond, cfg.TourSettleDelay)
	assert.Equal(t, time.Second, cfg.TypingDelayMin)
	assert.Equal(t, 2*time.Second, cfg.TypingDelayMax)
	assert.Equal(t, 3*time.Second, cfg.PaymentProcessingDelay)
	assert.Equal(t, 5*time.Second, cfg.NotificationTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", " Redis ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("PAYMENT_PROCESSING_DELAY", "10ms")
	t.Setenv("ENV", "Production")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 2.5, cfg.RateLimitPerSecond, 0.0001)
	assert.Equal(t, 10*time.Millisecond, cfg.PaymentProcessingDelay)
	assert.True(t, cfg.IsProduction())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("REDIS_TLS", "maybe")
	t.Setenv("SESSION_IDLE_TTL", "forever")

	cfg := Load()
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.False(t, cfg.RedisTLS)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
}
