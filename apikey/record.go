package apikey

import "time"

// Status is the lifecycle state of an API key.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
)

// KeyLength is the length of generated API key tokens.
const KeyLength = 32

// Record is one API key.
type Record struct {
	// ID is the record's unique identifier.
	ID string

	// Key is the opaque token presented by clients. Unique.
	Key string

	// UserID is the owning user.
	UserID int64

	AppName     string
	Description string

	Status Status

	// ExpiresAt is when the key stops validating. Nil means never.
	ExpiresAt *time.Time

	// LastUsed is the time of the last successful validation. Nil until the
	// key is first used.
	LastUsed *time.Time

	// UsageCount is the number of successful validations.
	UsageCount int64

	CreatedAt time.Time
}

// Usable reports whether the record validates at the given instant:
// status active and not past its expiry.
func (r *Record) Usable(now time.Time) bool {
	if r.Status != StatusActive {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}
