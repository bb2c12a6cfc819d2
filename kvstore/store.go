package kvstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Sentinel errors for store operations.
var (
	ErrNilStore = errors.New("kvstore: store is nil")
)

// Entry is a stored key/value pair together with its insertion sequence.
// Lower Seq means the entry was first written earlier.
type Entry struct {
	Key   string
	Value []byte
	Seq   int64
}

// Store is the expiring key/value store the cache core runs against.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get returns (nil, false, nil) on miss or expiry; errors are reserved for
//   store unavailability and must not be masked as misses.
// - Set with ttl <= 0 stores the value without an expiry.
// - DeleteMatching is idempotent; patterns are OR-combined globs where "*"
//   matches any run of characters.
type Store interface {
	// Get retrieves a value. Returns (nil, false, nil) when absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteMatching removes every key matching any of the patterns and
	// returns the number of keys removed.
	DeleteMatching(ctx context.Context, patterns []string) (int64, error)

	// ListAll returns every live entry in insertion order, oldest first.
	ListAll(ctx context.Context) ([]Entry, error)

	// TotalBytes returns the summed byte length of all live values.
	TotalBytes(ctx context.Context) (int64, error)
}

// MatchPattern reports whether value matches a glob pattern in which "*"
// matches any (possibly empty) run of characters. This is the pattern
// language used by invalidation sweeps.
func MatchPattern(pattern, value string) bool {
	segments := strings.Split(pattern, "*")
	if len(segments) == 1 {
		return pattern == value
	}

	// Leading segment must anchor at the start.
	if !strings.HasPrefix(value, segments[0]) {
		return false
	}
	rest := value[len(segments[0]):]

	// Middle segments must appear in order.
	for _, seg := range segments[1 : len(segments)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(rest, seg)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(seg):]
	}

	// Trailing segment must anchor at the end.
	last := segments[len(segments)-1]
	return strings.HasSuffix(rest, last)
}
