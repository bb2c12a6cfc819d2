package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rwhitmore/realtyops/kvstore"
)

// Outcome is the result of a single get-or-compute call.
type Outcome int

const (
	// Hit means the value was served from the store.
	Hit Outcome = iota
	// Miss means the producer was invoked.
	Miss
)

// ringSize bounds the per-type response-time sample buffer.
const ringSize = 100

// TypeStats are the detailed statistics for one cache type.
type TypeStats struct {
	Hits            int64     `json:"hits"`
	Misses          int64     `json:"misses"`
	LastAccessed    time.Time `json:"last_accessed"`
	AvgResponseTime float64   `json:"avg_response_time"`
	// ResponseTimes holds the most recent samples in milliseconds, oldest
	// first, at most ringSize entries.
	ResponseTimes []float64 `json:"response_times"`
}

// Aggregate is the persisted process-wide statistics record.
type Aggregate struct {
	Hits   int64                 `json:"hits"`
	Misses int64                 `json:"misses"`
	ByType map[string]*TypeStats `json:"by_type"`
}

func newAggregate() *Aggregate {
	return &Aggregate{ByType: make(map[string]*TypeStats)}
}

// HitRate returns the hit percentage, or 0 when there are no samples.
func (a Aggregate) HitRate() float64 {
	total := a.Hits + a.Misses
	if total == 0 {
		return 0
	}
	return float64(a.Hits) / float64(total) * 100
}

// StatsStore persists the aggregate record. Writes are last-writer-wins; the
// design tolerates lost updates between concurrent processes.
type StatsStore interface {
	// Load retrieves the persisted aggregate. Returns (nil, nil) when none
	// has been saved yet.
	Load(ctx context.Context) (*Aggregate, error)

	// Save overwrites the persisted aggregate.
	Save(ctx context.Context, agg *Aggregate) error
}

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// Store persists the aggregate between processes. Optional.
	Store StatsStore

	// Meter emits hit/miss counters alongside the persisted record. Optional.
	Meter metric.Meter

	Logger zerolog.Logger
}

// Tracker records hit/miss counts and per-type response-time samples.
type Tracker struct {
	mu     sync.Mutex
	agg    *Aggregate
	store  StatsStore
	logger zerolog.Logger

	hitCount  metric.Int64Counter
	missCount metric.Int64Counter
}

// NewTracker creates a tracker. When opts.Meter is set the tracker also
// registers cache.hits and cache.misses counters.
func NewTracker(opts TrackerOptions) *Tracker {
	t := &Tracker{
		agg:    newAggregate(),
		store:  opts.Store,
		logger: opts.Logger,
	}
	if opts.Meter != nil {
		var err error
		t.hitCount, err = opts.Meter.Int64Counter(
			"cache.hits",
			metric.WithDescription("Cache lookups served from the store"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			t.logger.Warn().Err(err).Msg("cache: hit counter unavailable")
		}
		t.missCount, err = opts.Meter.Int64Counter(
			"cache.misses",
			metric.WithDescription("Cache lookups that invoked the producer"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			t.logger.Warn().Err(err).Msg("cache: miss counter unavailable")
		}
	}
	return t
}

// Restore replaces the in-memory aggregate with the persisted one, if any.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	agg, err := t.store.Load(ctx)
	if err != nil {
		return err
	}
	if agg == nil {
		return nil
	}
	if agg.ByType == nil {
		agg.ByType = make(map[string]*TypeStats)
	}

	t.mu.Lock()
	t.agg = agg
	t.mu.Unlock()
	return nil
}

// Record classifies key (namespace already stripped) and accounts one
// outcome. The response-time sample is the wall-clock cost of the stats
// update itself, appended to a buffer capped at the 100 most recent samples.
func (t *Tracker) Record(ctx context.Context, key string, outcome Outcome) {
	cacheType := DetermineCacheType(key)

	t.mu.Lock()
	start := time.Now()

	ts, ok := t.agg.ByType[cacheType]
	if !ok {
		ts = &TypeStats{}
		t.agg.ByType[cacheType] = ts
	}
	switch outcome {
	case Hit:
		t.agg.Hits++
		ts.Hits++
	case Miss:
		t.agg.Misses++
		ts.Misses++
	}
	ts.LastAccessed = time.Now()

	elapsed := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)
	ts.ResponseTimes = append(ts.ResponseTimes, elapsed)
	if len(ts.ResponseTimes) > ringSize {
		ts.ResponseTimes = ts.ResponseTimes[len(ts.ResponseTimes)-ringSize:]
	}
	ts.AvgResponseTime = average(ts.ResponseTimes)

	snapshot := t.agg.clone()
	t.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("cache.type", cacheType))
	switch outcome {
	case Hit:
		if t.hitCount != nil {
			t.hitCount.Add(ctx, 1, attrs)
		}
	case Miss:
		if t.missCount != nil {
			t.missCount.Add(ctx, 1, attrs)
		}
	}

	t.persist(ctx, snapshot)
}

// Counters returns a copy of the current aggregate.
func (t *Tracker) Counters() Aggregate {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.agg.clone()
}

// Reset zeroes the counters for one cache type, or for everything when
// cacheType is empty, and overwrites the stored aggregate.
func (t *Tracker) Reset(ctx context.Context, cacheType string) {
	t.mu.Lock()
	if cacheType == "" {
		t.agg = newAggregate()
	} else if ts, ok := t.agg.ByType[cacheType]; ok {
		t.agg.Hits -= ts.Hits
		t.agg.Misses -= ts.Misses
		delete(t.agg.ByType, cacheType)
	}
	snapshot := t.agg.clone()
	t.mu.Unlock()

	t.persist(ctx, snapshot)
}

// persist is best-effort: a failed save must not fail the request that
// triggered the stats update.
func (t *Tracker) persist(ctx context.Context, agg *Aggregate) {
	if t.store == nil {
		return
	}
	if err := t.store.Save(ctx, agg); err != nil {
		t.logger.Warn().Err(err).Msg("cache: stats save failed")
	}
}

func (a *Aggregate) clone() *Aggregate {
	out := &Aggregate{
		Hits:   a.Hits,
		Misses: a.Misses,
		ByType: make(map[string]*TypeStats, len(a.ByType)),
	}
	for name, ts := range a.ByType {
		copied := *ts
		copied.ResponseTimes = append([]float64(nil), ts.ResponseTimes...)
		out.ByType[name] = &copied
	}
	return out
}

func average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// KVStatsStore persists the aggregate as a JSON document in a key/value
// store. Use a store or prefix separate from the cache data so the record is
// not swept by invalidation or pruning.
type KVStatsStore struct {
	store kvstore.Store
	key   string
}

// NewKVStatsStore creates a stats store writing under the given key.
func NewKVStatsStore(store kvstore.Store, key string) *KVStatsStore {
	return &KVStatsStore{store: store, key: key}
}

// Load retrieves the persisted aggregate.
func (s *KVStatsStore) Load(ctx context.Context) (*Aggregate, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var agg Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// Save overwrites the persisted aggregate. The record never expires.
func (s *KVStatsStore) Save(ctx context.Context, agg *Aggregate) error {
	raw, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.key, raw, 0)
}

// Ensure KVStatsStore implements StatsStore
var _ StatsStore = (*KVStatsStore)(nil)
