package apikey

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrDuplicateKey is returned by Insert when the token collides with an
	// existing record.
	ErrDuplicateKey = errors.New("apikey: duplicate key")
)

// Store persists API key records.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - FindByKey returns (nil, nil) when no record matches.
// - Implementations backed by SQL must bind every parameter.
type Store interface {
	// Insert adds a new record. Returns ErrDuplicateKey on token collision.
	Insert(ctx context.Context, record *Record) error

	// FindByKey retrieves a record by exact token match.
	FindByKey(ctx context.Context, key string) (*Record, error)

	// UpdateStatus transitions a record's status by exact token match and
	// returns the number of affected records.
	UpdateStatus(ctx context.Context, key string, status Status) (int64, error)

	// Delete hard-deletes a record and returns the number of affected
	// records.
	Delete(ctx context.Context, key string) (int64, error)

	// Touch increments the usage count and sets last_used.
	Touch(ctx context.Context, key string, usedAt time.Time) error

	// ExpireOverdue marks every active record past its expiry as expired
	// and returns the number of affected records.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// ListByUser returns all records owned by a user, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*Record, error)
}
