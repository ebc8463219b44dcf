package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/chispart-landing/internal/config"
	"github.com/wolfman30/chispart-landing/internal/demochat"
	"github.com/wolfman30/chispart-landing/internal/storage"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const transcriptTTL = 7 * 24 * time.Hour

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL, returning nil when it is unset.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// Backing holds the connections the selected store runs on.
type Backing struct {
	Redis    *redis.Client
	Postgres *pgxpool.Pool
}

// BuildStore picks the subscription store named by cfg.StoreBackend. A
// backend whose connection is missing is an error rather than a silent
// fallback to memory.
func BuildStore(cfg *appconfig.Config, backing Backing, logger *logging.Logger) (storage.KV, error) {
	if logger == nil {
		logger = logging.Default()
	}
	backend := BackendMemory
	if cfg != nil && cfg.StoreBackend != "" {
		backend = cfg.StoreBackend
	}

	switch backend {
	case BackendMemory:
		logger.Info("subscription store: memory")
		return storage.NewMemoryStore(), nil
	case BackendRedis:
		if backing.Redis == nil {
			return nil, fmt.Errorf("bootstrap: store backend %q needs REDIS_ADDR", backend)
		}
		logger.Info("subscription store: redis")
		return storage.NewRedisStore(backing.Redis, 0), nil
	case BackendPostgres:
		if backing.Postgres == nil {
			return nil, fmt.Errorf("bootstrap: store backend %q needs DATABASE_URL", backend)
		}
		logger.Info("subscription store: postgres")
		return storage.NewPostgresStore(backing.Postgres), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown store backend %q", backend)
	}
}

// BuildTranscriptStore mirrors demo chats to Redis when a client is available.
func BuildTranscriptStore(client *redis.Client) demochat.TranscriptStore {
	if client == nil {
		return nil
	}
	return demochat.NewRedisTranscript(client, transcriptTTL)
}

// ReadyCheck pings whichever connections are configured.
func ReadyCheck(backing Backing) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if backing.Redis != nil {
			if err := backing.Redis.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("bootstrap: redis: %w", err)
			}
		}
		if backing.Postgres != nil {
			if err := backing.Postgres.Ping(ctx); err != nil {
				return fmt.Errorf("bootstrap: postgres: %w", err)
			}
		}
		return nil
	}
}
