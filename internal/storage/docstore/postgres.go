package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one row per collection and relies on a guarded UPDATE
// for the compare-and-swap.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Document, error) {
	doc := Document{Key: key}
	err := s.pool.QueryRow(ctx, `
		SELECT data, version, updated_at FROM collections WHERE key = $1
	`, key).Scan(&doc.Data, &doc.Version, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, data json.RawMessage, expectedVersion int64) (int64, error) {
	if expectedVersion == 0 {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO collections (key, data, version, updated_at)
			VALUES ($1, $2, 1, now())
			ON CONFLICT (key) DO NOTHING
		`, key, data)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 1 {
			return 1, nil
		}
		return 0, s.conflict(ctx, key, expectedVersion)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE collections
		SET data = $3, version = version + 1, updated_at = now()
		WHERE key = $1 AND version = $2
	`, key, expectedVersion, data)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, s.conflict(ctx, key, expectedVersion)
	}
	return expectedVersion + 1, nil
}

func (s *PostgresStore) Force(ctx context.Context, key string, data json.RawMessage) (int64, error) {
	var version int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO collections (key, data, version, updated_at)
		VALUES ($1, $2, 1, now())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data, version = collections.version + 1, updated_at = now()
		RETURNING version
	`, key, data).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *PostgresStore) conflict(ctx context.Context, key string, expected int64) error {
	var current int64
	err := s.pool.QueryRow(ctx, `SELECT version FROM collections WHERE key = $1`, key).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return &ConflictError{Key: key, Expected: expected, Current: current}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
