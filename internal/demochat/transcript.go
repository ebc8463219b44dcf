package demochat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/chispart-landing/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const transcriptKeyPrefix = "demochat:transcript:"

// TranscriptEntry is one stored chat line.
type TranscriptEntry struct {
	ID        string         `json:"id"`
	Sender    session.Sender `json:"sender"`
	Text      string         `json:"text"`
	Rule      string         `json:"rule,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// TranscriptStore mirrors a visitor's demo chat outside the session.
type TranscriptStore interface {
	Append(ctx context.Context, visitorID string, entry TranscriptEntry) error
	List(ctx context.Context, visitorID string, limit int64) ([]TranscriptEntry, error)
}

// RedisTranscript keeps each visitor's transcript as a Redis list. Lists are
// never trimmed; the TTL is refreshed on every append.
type RedisTranscript struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisTranscript returns nil when client is nil.
func NewRedisTranscript(client *redis.Client, ttl time.Duration) *RedisTranscript {
	if client == nil {
		return nil
	}
	return &RedisTranscript{
		redis:  client,
		tracer: otel.Tracer("chispart.internal.demochat.transcript"),
		ttl:    ttl,
	}
}

func (s *RedisTranscript) Append(ctx context.Context, visitorID string, entry TranscriptEntry) error {
	if s == nil || s.redis == nil {
		return nil
	}
	if visitorID == "" {
		return errors.New("demochat: transcript visitorID required")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("demochat: marshal transcript entry: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "demochat.transcript.append")
	defer span.End()

	key := transcriptKey(visitorID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("demochat: append transcript entry: %w", err)
	}
	return nil
}

// List returns the newest limit entries in chronological order; limit <= 0 returns all.
func (s *RedisTranscript) List(ctx context.Context, visitorID string, limit int64) ([]TranscriptEntry, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	if visitorID == "" {
		return nil, errors.New("demochat: transcript visitorID required")
	}

	ctx, span := s.tracer.Start(ctx, "demochat.transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := s.redis.LRange(ctx, transcriptKey(visitorID), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []TranscriptEntry{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("demochat: list transcript: %w", err)
	}

	out := make([]TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func transcriptKey(visitorID string) string {
	return transcriptKeyPrefix + visitorID
}
