package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rwhitmore/realtyops/kvstore"
	"github.com/rwhitmore/realtyops/settings"
)

// DefaultTTL is the fallback cache duration for keys whose entity family has
// no configured cache time.
const DefaultTTL = 24 * time.Hour

// ErrNilProducer is returned when Remember is called without a producer.
var ErrNilProducer = errors.New("cache: producer is nil")

// Producer computes a fresh value on cache miss. Producer errors propagate to
// the caller untouched; the cache write is skipped.
type Producer func(ctx context.Context) ([]byte, error)

// Options configures a Service.
type Options struct {
	// Store is the backing key/value store. Required.
	Store kvstore.Store

	// Settings control the global switch, namespace, TTLs and size budget.
	// Defaults are used when nil.
	Settings *settings.Settings

	// Tracker records hit/miss statistics. A fresh unpersisted tracker is
	// used when nil.
	Tracker *Tracker

	Logger zerolog.Logger

	// CoalesceMisses collapses concurrent misses on the same key into a
	// single producer call. Off by default: the unguarded double miss is an
	// accepted tradeoff for idempotent read producers.
	CoalesceMisses bool
}

// Service is the get-or-compute core. Construct one per process and pass it
// by reference; it holds no hidden global state.
type Service struct {
	store    kvstore.Store
	settings *settings.Settings
	keyer    *Keyer
	tracker  *Tracker
	logger   zerolog.Logger
	flight   *singleflight.Group

	pruneMu   sync.Mutex
	lastPrune time.Time
}

// NewService creates a caching service.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, kvstore.ErrNilStore
	}
	cfg := opts.Settings
	if cfg == nil {
		cfg = settings.Default()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewTracker(TrackerOptions{Logger: opts.Logger})
	}

	s := &Service{
		store:    opts.Store,
		settings: cfg,
		keyer:    NewKeyer(cfg.Namespace),
		tracker:  tracker,
		logger:   opts.Logger,
	}
	if opts.CoalesceMisses {
		s.flight = &singleflight.Group{}
	}
	return s, nil
}

// Keyer returns the service's key builder.
func (s *Service) Keyer() *Keyer { return s.keyer }

// Tracker returns the service's stats tracker.
func (s *Service) Tracker() *Tracker { return s.tracker }

// BuildKey derives a cache key in the service's namespace.
func (s *Service) BuildKey(base string, params map[string]any) string {
	return s.keyer.BuildKey(base, params)
}

// ttlMapping binds a key substring to its settings field. The table is
// ordered most-specific first so "property_types" resolves to the taxonomy
// setting rather than the property one.
type ttlMapping struct {
	match string
	value func(*settings.Settings) int
}

var ttlTable = []ttlMapping{
	{"property_types", func(s *settings.Settings) int { return s.TaxonomyCacheTime }},
	{"property_status", func(s *settings.Settings) int { return s.TaxonomyCacheTime }},
	{"properties", func(s *settings.Settings) int { return s.PropertiesCacheTime }},
	{"property", func(s *settings.Settings) int { return s.PropertyCacheTime }},
	{"agencies", func(s *settings.Settings) int { return s.AgenciesCacheTime }},
	{"agency", func(s *settings.Settings) int { return s.AgencyCacheTime }},
	{"agents", func(s *settings.Settings) int { return s.AgentsCacheTime }},
	{"agent", func(s *settings.Settings) int { return s.AgentCacheTime }},
}

// CacheDuration resolves the effective TTL for a key. A configured entity
// cache time wins; an entity matched but left unconfigured falls back to
// DefaultTTL; an unmatched key uses defaultTTL as given. Zero disables
// caching for the key.
func (s *Service) CacheDuration(key string, defaultTTL time.Duration) time.Duration {
	base := s.keyer.StripNamespace(key)
	for _, m := range ttlTable {
		if !strings.Contains(base, m.match) {
			continue
		}
		if v := m.value(s.settings); v != settings.TTLUnset {
			return time.Duration(v) * time.Second
		}
		return DefaultTTL
	}
	return defaultTTL
}

// Remember returns the cached value for key, or invokes producer, stores the
// result with the effective TTL, and returns it.
//
// When caching is disabled globally or the effective TTL is zero, producer is
// invoked directly and nothing is recorded. Store errors and producer errors
// both propagate to the caller; a failed read is never masked as a miss.
func (s *Service) Remember(ctx context.Context, key string, defaultTTL time.Duration, producer Producer) ([]byte, error) {
	if producer == nil {
		return nil, ErrNilProducer
	}
	if !s.settings.EnableCaching {
		return producer(ctx)
	}

	ttl := s.CacheDuration(key, defaultTTL)
	if ttl <= 0 {
		return producer(ctx)
	}

	value, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	base := s.keyer.StripNamespace(key)
	if ok && len(value) > 0 {
		s.tracker.Record(ctx, base, Hit)
		return value, nil
	}

	if s.flight != nil {
		v, err, _ := s.flight.Do(key, func() (any, error) {
			return s.produce(ctx, key, base, ttl, producer)
		})
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	}
	return s.produce(ctx, key, base, ttl, producer)
}

func (s *Service) produce(ctx context.Context, key, base string, ttl time.Duration, producer Producer) ([]byte, error) {
	fresh, err := producer(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, key, fresh, ttl); err != nil {
		return nil, err
	}
	s.tracker.Record(ctx, base, Miss)
	return fresh, nil
}

// Stats combines the tracker's counters with a live scan of the store.
type Stats struct {
	TotalItems  int                   `json:"total_items"`
	ItemsByType map[string]int        `json:"items_by_type"`
	CacheSize   int64                 `json:"cache_size"`
	SizeByType  map[string]int64      `json:"size_by_type"`
	Hits        int64                 `json:"hits"`
	Misses      int64                 `json:"misses"`
	HitRate     float64               `json:"hit_rate"`
	ByType      map[string]*TypeStats `json:"by_type"`
}

// Stats reports cache contents and hit/miss accounting.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	out := &Stats{
		ItemsByType: make(map[string]int),
		SizeByType:  make(map[string]int64),
	}
	for _, entry := range entries {
		cacheType := DetermineCacheType(s.keyer.StripNamespace(entry.Key))
		out.TotalItems++
		out.ItemsByType[cacheType]++
		out.CacheSize += int64(len(entry.Value))
		out.SizeByType[cacheType] += int64(len(entry.Value))
	}

	counters := s.tracker.Counters()
	out.Hits = counters.Hits
	out.Misses = counters.Misses
	out.HitRate = counters.HitRate()
	out.ByType = counters.ByType
	return out, nil
}
