package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhitmore/realtyops/kvstore"
	"github.com/rwhitmore/realtyops/settings"
)

func newTestService(t *testing.T, cfg *settings.Settings) (*Service, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	svc, err := NewService(Options{Store: store, Settings: cfg})
	require.NoError(t, err)
	return svc, store
}

// sentinelProducer returns a fresh value on every invocation so tests can
// tell a cached read from a producer call.
func sentinelProducer() Producer {
	n := 0
	return func(context.Context) ([]byte, error) {
		n++
		return []byte(fmt.Sprintf("value-%d", n)), nil
	}
}

func TestRemember_SecondCallIsHit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	producer := sentinelProducer()
	key := svc.BuildKey("properties", map[string]any{"page": 1})

	first, err := svc.Remember(ctx, key, time.Hour, producer)
	require.NoError(t, err)
	second, err := svc.Remember(ctx, key, time.Hour, producer)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	counters := svc.Tracker().Counters()
	assert.Equal(t, int64(1), counters.Hits)
	assert.Equal(t, int64(1), counters.Misses)
}

func TestRemember_ZeroTTLBypasses(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	producer := sentinelProducer()

	// "custom" matches no TTL mapping, so the zero default applies.
	first, err := svc.Remember(ctx, svc.BuildKey("custom", nil), 0, producer)
	require.NoError(t, err)
	second, err := svc.Remember(ctx, svc.BuildKey("custom", nil), 0, producer)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 0, store.Len())

	counters := svc.Tracker().Counters()
	assert.Zero(t, counters.Hits)
	assert.Zero(t, counters.Misses)
}

func TestRemember_GlobalDisableBypasses(t *testing.T) {
	ctx := context.Background()
	cfg := settings.Default()
	cfg.EnableCaching = false
	svc, store := newTestService(t, cfg)
	producer := sentinelProducer()
	key := svc.BuildKey("properties", nil)

	first, err := svc.Remember(ctx, key, time.Hour, producer)
	require.NoError(t, err)
	second, err := svc.Remember(ctx, key, time.Hour, producer)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 0, store.Len())
}

func TestRemember_ConfiguredZeroDisablesFamily(t *testing.T) {
	ctx := context.Background()
	cfg := settings.Default()
	cfg.PropertiesCacheTime = 0
	svc, store := newTestService(t, cfg)
	producer := sentinelProducer()

	first, err := svc.Remember(ctx, svc.BuildKey("properties", nil), time.Hour, producer)
	require.NoError(t, err)
	second, err := svc.Remember(ctx, svc.BuildKey("properties", nil), time.Hour, producer)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 0, store.Len())
}

func TestRemember_ProducerErrorPropagates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)

	boom := errors.New("upstream query failed")
	_, err := svc.Remember(ctx, svc.BuildKey("properties", nil), time.Hour, func(context.Context) ([]byte, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	// Cache write skipped, no stats recorded.
	assert.Equal(t, 0, store.Len())
	counters := svc.Tracker().Counters()
	assert.Zero(t, counters.Misses)
}

func TestRemember_NilProducer(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Remember(context.Background(), "k", time.Hour, nil)
	assert.ErrorIs(t, err, ErrNilProducer)
}

// brokenStore fails every read to verify store errors are never masked as
// misses.
type brokenStore struct{ kvstore.Store }

var errStoreDown = errors.New("store unavailable")

func (b *brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}

func TestRemember_StoreErrorPropagates(t *testing.T) {
	svc, err := NewService(Options{Store: &brokenStore{Store: kvstore.NewMemoryStore()}})
	require.NoError(t, err)

	_, err = svc.Remember(context.Background(), svc.BuildKey("properties", nil), time.Hour, sentinelProducer())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestRemember_CoalesceMisses(t *testing.T) {
	store := kvstore.NewMemoryStore()
	svc, err := NewService(Options{Store: store, CoalesceMisses: true})
	require.NoError(t, err)

	value, err := svc.Remember(context.Background(), svc.BuildKey("properties", nil), time.Hour, sentinelProducer())
	require.NoError(t, err)
	assert.Equal(t, []byte("value-1"), value)
}

func TestCacheDuration(t *testing.T) {
	cfg := settings.Default()
	cfg.PropertiesCacheTime = 600
	cfg.PropertyCacheTime = 300
	cfg.AgentsCacheTime = 0
	cfg.TaxonomyCacheTime = 120
	svc, _ := newTestService(t, cfg)

	tests := []struct {
		name string
		key  string
		def  time.Duration
		want time.Duration
	}{
		{"configured list family", "realty_api_properties_abc", time.Hour, 600 * time.Second},
		{"configured single family", "realty_api_single_property_42", time.Hour, 300 * time.Second},
		{"taxonomy wins over property", "realty_api_list_property_types", time.Hour, 120 * time.Second},
		{"taxonomy status", "realty_api_taxonomy_property_status", time.Hour, 120 * time.Second},
		{"configured zero disables", "realty_api_agents_abc", time.Hour, 0},
		{"matched but unconfigured falls back", "realty_api_single_agency_9", time.Hour, DefaultTTL},
		{"unmatched uses given default", "realty_api_custom_abc", time.Hour, time.Hour},
		{"unmatched zero default", "realty_api_custom_abc", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.CacheDuration(tt.key, tt.def))
		})
	}
}

// TestRememberInvalidateScenario walks the list-cache lifecycle end to end:
// miss, hit, bulk invalidation, miss with a fresh value.
func TestRememberInvalidateScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	producer := sentinelProducer()
	key := "realty_api_properties_abc"

	first, err := svc.Remember(ctx, key, 86400*time.Second, producer)
	require.NoError(t, err)
	assert.Equal(t, []byte("value-1"), first)

	second, err := svc.Remember(ctx, key, 86400*time.Second, producer)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	counters := svc.Tracker().Counters()
	assert.Equal(t, int64(1), counters.Hits)
	assert.Equal(t, int64(1), counters.Misses)

	_, err = svc.Invalidate(ctx, []string{"list_properties"}, InvalidateOptions{})
	require.NoError(t, err)

	third, err := svc.Remember(ctx, key, 86400*time.Second, producer)
	require.NoError(t, err)
	assert.Equal(t, []byte("value-2"), third)

	counters = svc.Tracker().Counters()
	assert.Equal(t, int64(2), counters.Misses)
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	producer := sentinelProducer()

	_, err := svc.Remember(ctx, svc.BuildKey("properties", map[string]any{"page": 1}), time.Hour, producer)
	require.NoError(t, err)
	_, err = svc.Remember(ctx, svc.BuildKey("agents", map[string]any{"page": 1}), time.Hour, producer)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.ItemsByType["properties"])
	assert.Equal(t, 1, stats.ItemsByType["agents"])
	assert.Positive(t, stats.CacheSize)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Zero(t, stats.HitRate)
}
