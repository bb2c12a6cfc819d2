package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhitmore/realtyops/kvstore"
)

func staticChecker(name string, status Status) Checker {
	return NewCheckerFunc(name, func(context.Context) Result {
		return Result{Status: status, CheckedAt: time.Now()}
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "healthy", StatusHealthy.String())
	assert.Equal(t, "degraded", StatusDegraded.String())
	assert.Equal(t, "unhealthy", StatusUnhealthy.String())
	assert.Equal(t, "unknown", Status(9).String())
}

func TestAggregatorCheckAll(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(staticChecker("store", StatusHealthy))
	agg.Register(staticChecker("warming", StatusDegraded))

	results := agg.CheckAll(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, StatusHealthy, results["store"].Status)
	assert.Equal(t, StatusDegraded, results["warming"].Status)
	assert.False(t, results["store"].CheckedAt.IsZero())
}

func TestAggregatorRegisterReplacesByName(t *testing.T) {
	agg := NewAggregator(time.Second)
	agg.Register(staticChecker("store", StatusUnhealthy))
	agg.Register(staticChecker("store", StatusHealthy))

	results := agg.CheckAll(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, StatusHealthy, results["store"].Status)
}

func TestAggregatorTimeout(t *testing.T) {
	agg := NewAggregator(20 * time.Millisecond)
	agg.Register(NewCheckerFunc("slow", func(ctx context.Context) Result {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return Result{Status: StatusHealthy}
	}))

	results := agg.CheckAll(context.Background())
	require.Contains(t, results, "slow")
	assert.Equal(t, StatusUnhealthy, results["slow"].Status)
	assert.ErrorIs(t, results["slow"].Err, ErrCheckTimeout)
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty is healthy", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded dominates healthy", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy dominates all", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(map[string]Result, len(tt.statuses))
			for i, s := range tt.statuses {
				results[string(rune('a'+i))] = Result{Status: s}
			}
			assert.Equal(t, tt.want, Overall(results))
		})
	}
}

func TestStoreCheck(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "k", []byte("0123456789"), 0))

	t.Run("within budget", func(t *testing.T) {
		result := StoreCheck(store, 1024).Check(ctx)
		assert.Equal(t, StatusHealthy, result.Status)
		assert.Equal(t, int64(10), result.Details["total_bytes"])
	})

	t.Run("over budget degrades", func(t *testing.T) {
		result := StoreCheck(store, 5).Check(ctx)
		assert.Equal(t, StatusDegraded, result.Status)
	})
}

type downStore struct{ kvstore.Store }

func (downStore) TotalBytes(context.Context) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestStoreCheck_Unreachable(t *testing.T) {
	result := StoreCheck(downStore{}, 1024).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Error(t, result.Err)
}

func TestWarmthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("never ran", func(t *testing.T) {
		result := WarmthCheck(func() time.Time { return time.Time{} }, time.Hour).Check(ctx)
		assert.Equal(t, StatusDegraded, result.Status)
	})

	t.Run("current", func(t *testing.T) {
		recent := time.Now().Add(-time.Minute)
		result := WarmthCheck(func() time.Time { return recent }, time.Hour).Check(ctx)
		assert.Equal(t, StatusHealthy, result.Status)
	})

	t.Run("stale", func(t *testing.T) {
		old := time.Now().Add(-3 * time.Hour)
		result := WarmthCheck(func() time.Time { return old }, time.Hour).Check(ctx)
		assert.Equal(t, StatusDegraded, result.Status)
	})
}
