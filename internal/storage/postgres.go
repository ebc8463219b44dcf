package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps values in the landing_kv table (see migrations).
type PostgresStore struct {
	db     DB
	tracer trace.Tracer
	now    func() time.Time
}

// NewPostgresStore wraps a pgx pool or connection.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("chispart.internal.storage.postgres"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := validate(namespace, key); err != nil {
		return err
	}
	ctx, span := s.tracer.Start(ctx, "storage.postgres.put")
	defer span.End()

	_, err := s.db.Exec(ctx, `
		INSERT INTO landing_kv (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		namespace, key, value, s.now(),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("storage: postgres put %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if err := validate(namespace, key); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "storage.postgres.get")
	defer span.End()

	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM landing_kv WHERE namespace = $1 AND key = $2`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, namespace, key)
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("storage: postgres get %s: %w", key, err)
	}
	return value, nil
}
