package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists API keys in Postgres. Every query is
// parameter-bound.
//
// Expected schema:
//
//	CREATE TABLE api_keys (
//	    id          uuid PRIMARY KEY,
//	    api_key     text NOT NULL UNIQUE,
//	    user_id     bigint NOT NULL,
//	    app_name    text NOT NULL,
//	    description text NOT NULL DEFAULT '',
//	    status      text NOT NULL,
//	    expires_at  timestamptz,
//	    last_used   timestamptz,
//	    usage_count bigint NOT NULL DEFAULT 0,
//	    created_at  timestamptz NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert adds a new record. Returns ErrDuplicateKey on token collision.
func (s *PostgresStore) Insert(ctx context.Context, record *Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_keys (id, api_key, user_id, app_name, description, status, expires_at, usage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)`,
		record.ID, record.Key, record.UserID, record.AppName, record.Description,
		string(record.Status), record.ExpiresAt, record.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateKey
	}
	return err
}

// FindByKey retrieves a record by exact token match.
func (s *PostgresStore) FindByKey(ctx context.Context, key string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, api_key, user_id, app_name, description, status, expires_at, last_used, usage_count, created_at
		FROM api_keys
		WHERE api_key = $1`,
		key,
	)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateStatus transitions a record's status by exact token match.
func (s *PostgresStore) UpdateStatus(ctx context.Context, key string, status Status) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET status = $1 WHERE api_key = $2`,
		string(status), key,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete hard-deletes a record.
func (s *PostgresStore) Delete(ctx context.Context, key string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM api_keys WHERE api_key = $1`,
		key,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Touch increments usage and stamps last_used.
func (s *PostgresStore) Touch(ctx context.Context, key string, usedAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET usage_count = usage_count + 1, last_used = $1 WHERE api_key = $2`,
		usedAt, key,
	)
	return err
}

// ExpireOverdue marks every active record past its expiry as expired.
func (s *PostgresStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE api_keys
		SET status = $1
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3`,
		string(StatusExpired), string(StatusActive), now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns a user's records, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, api_key, user_id, app_name, description, status, expires_at, last_used, usage_count, created_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var record Record
	var status string
	err := row.Scan(
		&record.ID, &record.Key, &record.UserID, &record.AppName, &record.Description,
		&status, &record.ExpiresAt, &record.LastUsed, &record.UsageCount, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Status = Status(status)
	return &record, nil
}

// Ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)
