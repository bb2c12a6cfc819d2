package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rwhitmore/realtyops/kvstore"
)

// StoreCheck reports on the cache's backing store: unreachable is unhealthy,
// reachable but over the size budget is degraded.
func StoreCheck(store kvstore.Store, maxBytes int64) Checker {
	return NewCheckerFunc("cache_store", func(ctx context.Context) Result {
		total, err := store.TotalBytes(ctx)
		if err != nil {
			return Result{
				Status:    StatusUnhealthy,
				Message:   "store unreachable",
				Err:       err,
				CheckedAt: time.Now(),
			}
		}

		details := map[string]any{
			"total_bytes": total,
			"max_bytes":   maxBytes,
		}
		if maxBytes > 0 && total > maxBytes {
			return Result{
				Status:    StatusDegraded,
				Message:   fmt.Sprintf("cache %d bytes over budget", total-maxBytes),
				Details:   details,
				CheckedAt: time.Now(),
			}
		}
		return Result{
			Status:    StatusHealthy,
			Message:   "store reachable and within budget",
			Details:   details,
			CheckedAt: time.Now(),
		}
	})
}

// PostgresCheck reports whether the API key database answers a ping.
func PostgresCheck(pool *pgxpool.Pool) Checker {
	return NewCheckerFunc("apikey_db", func(ctx context.Context) Result {
		if err := pool.Ping(ctx); err != nil {
			return Result{
				Status:    StatusUnhealthy,
				Message:   "database unreachable",
				Err:       err,
				CheckedAt: time.Now(),
			}
		}
		return Result{
			Status:    StatusHealthy,
			Message:   "database reachable",
			CheckedAt: time.Now(),
		}
	})
}

// WarmthCheck reports whether scheduled warming keeps up. lastWarmed zero
// (never ran) or older than maxAge is degraded; warming is advisory, so the
// check never reports unhealthy.
func WarmthCheck(lastWarmed func() time.Time, maxAge time.Duration) Checker {
	return NewCheckerFunc("cache_warming", func(ctx context.Context) Result {
		last := lastWarmed()
		if last.IsZero() {
			return Result{
				Status:    StatusDegraded,
				Message:   "warming has not run",
				CheckedAt: time.Now(),
			}
		}

		age := time.Since(last)
		details := map[string]any{"last_warmed": last, "age": age.String()}
		if age > maxAge {
			return Result{
				Status:    StatusDegraded,
				Message:   fmt.Sprintf("last sweep %s ago exceeds %s", age.Round(time.Second), maxAge),
				Details:   details,
				CheckedAt: time.Now(),
			}
		}
		return Result{
			Status:    StatusHealthy,
			Message:   "warming current",
			Details:   details,
			CheckedAt: time.Now(),
		}
	})
}
