// Package cache provides request-scoped memoization for real-estate API
// responses.
//
// It derives deterministic SHA-256-based cache keys, resolves per-entity TTLs
// from settings, tracks hit/miss statistics with rolling response times,
// invalidates key families by glob pattern, and prunes the store oldest-first
// when a byte budget is exceeded.
package cache
