package apikey

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxGenerateAttempts caps the token collision retry loop. The token space
// makes a collision vanishingly unlikely, so hitting the cap indicates a
// store problem rather than bad luck.
const maxGenerateAttempts = 5

// ErrGenerateExhausted is returned when no unique token could be produced
// within maxGenerateAttempts.
var ErrGenerateExhausted = errors.New("apikey: could not generate a unique key")

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Registry manages API key records.
type Registry struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store Store, logger zerolog.Logger) *Registry {
	return &Registry{store: store, logger: logger, now: time.Now}
}

// Generate creates a new active key for userID and returns its token.
// expiryDays <= 0 means the key never expires.
func (r *Registry) Generate(ctx context.Context, userID int64, appName, description string, expiryDays int) (string, error) {
	var expiresAt *time.Time
	if expiryDays > 0 {
		t := r.now().AddDate(0, 0, expiryDays)
		expiresAt = &t
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		token, err := randomToken(KeyLength)
		if err != nil {
			return "", fmt.Errorf("apikey: generate: %w", err)
		}

		record := &Record{
			ID:          uuid.NewString(),
			Key:         token,
			UserID:      userID,
			AppName:     appName,
			Description: description,
			Status:      StatusActive,
			ExpiresAt:   expiresAt,
			CreatedAt:   r.now(),
		}
		err = r.store.Insert(ctx, record)
		if errors.Is(err, ErrDuplicateKey) {
			r.logger.Warn().Int("attempt", attempt+1).Msg("apikey: token collision, retrying")
			continue
		}
		if err != nil {
			return "", err
		}

		r.logger.Info().
			Str("id", record.ID).
			Int64("user_id", userID).
			Str("app", appName).
			Msg("apikey: generated")
		return token, nil
	}
	return "", ErrGenerateExhausted
}

// Validate reports whether token belongs to an active, unexpired key. A
// successful validation increments the key's usage count and stamps
// last_used; a failed stamp is logged, not surfaced, so a bookkeeping glitch
// never denies a valid key.
func (r *Registry) Validate(ctx context.Context, token string) (bool, error) {
	record, err := r.store.FindByKey(ctx, token)
	if err != nil {
		return false, err
	}
	if record == nil || !record.Usable(r.now()) {
		return false, nil
	}

	if err := r.store.Touch(ctx, token, r.now()); err != nil {
		r.logger.Warn().Err(err).Str("id", record.ID).Msg("apikey: usage stamp failed")
	}
	return true, nil
}

// Revoke transitions a key to inactive.
func (r *Registry) Revoke(ctx context.Context, token string) (int64, error) {
	return r.store.UpdateStatus(ctx, token, StatusInactive)
}

// Activate transitions a key back to active.
func (r *Registry) Activate(ctx context.Context, token string) (int64, error) {
	return r.store.UpdateStatus(ctx, token, StatusActive)
}

// Delete hard-deletes a key.
func (r *Registry) Delete(ctx context.Context, token string) (int64, error) {
	return r.store.Delete(ctx, token)
}

// SweepExpired marks every active-but-overdue key as expired and returns the
// number swept.
func (r *Registry) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := r.store.ExpireOverdue(ctx, r.now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		r.logger.Info().Int64("swept", swept).Msg("apikey: expired overdue keys")
	}
	return swept, nil
}

// List returns all keys owned by a user, newest first.
func (r *Registry) List(ctx context.Context, userID int64) ([]*Record, error) {
	return r.store.ListByUser(ctx, userID)
}

// randomToken draws a random alphanumeric token of length n.
func randomToken(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tokenAlphabet[idx.Int64()]
	}
	return string(out), nil
}
