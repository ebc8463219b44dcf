package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "landing:kv:"

// RedisStore keeps values as plain Redis strings.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisStore wraps a client. A zero ttl keeps values forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{
		redis:  client,
		tracer: otel.Tracer("chispart.internal.storage.redis"),
		ttl:    ttl,
	}
}

func (s *RedisStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "storage.redis.put")
	defer span.End()

	if err := s.redis.Set(ctx, redisKey(namespace, key), value, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("storage: redis put %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := validate(namespace, key); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "storage.redis.get")
	defer span.End()

	raw, err := s.redis.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("storage: redis get %s: %w", key, err)
	}
	return raw, nil
}

func redisKey(namespace, key string) string {
	return redisKeyPrefix + namespace + ":" + key
}
