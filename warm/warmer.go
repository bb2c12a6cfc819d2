package warm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rwhitmore/realtyops/cache"
)

// Scope selects which key families a sweep populates.
type Scope string

const (
	ScopeProperties Scope = "properties"
	ScopeAgents     Scope = "agents"
	ScopeTaxonomies Scope = "taxonomies"
	ScopeAll        Scope = "all"
)

// Source produces the data a sweep caches. Implemented by the host's
// endpoint/business layer.
type Source interface {
	Properties(ctx context.Context, page, perPage int) ([]byte, error)
	Agents(ctx context.Context, page, perPage int) ([]byte, error)
	Taxonomy(ctx context.Context, name string) ([]byte, error)
}

// pageMatrix is the fixed set of list shapes warmed for properties and
// agents.
var pageMatrix = []struct {
	Page    int
	PerPage int
}{
	{1, 10},
	{2, 10},
	{1, 20},
	{1, 50},
}

// taxonomyNames is the fixed set of taxonomies warmed.
var taxonomyNames = []string{
	"property_type",
	"property_status",
	"property_feature",
	"property_label",
	"property_city",
	"property_state",
	"property_country",
}

// Failure records one item that could not be warmed.
type Failure struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Report tallies one warming sweep.
type Report struct {
	Scope      Scope     `json:"scope"`
	Warmed     []string  `json:"warmed"`
	Failures   []Failure `json:"failures"`
	Skipped    int       `json:"skipped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Warmer runs warming sweeps against a cache service.
type Warmer struct {
	cache  *cache.Service
	source Source
	logger zerolog.Logger

	mu         sync.Mutex
	lastWarmed time.Time
}

// NewWarmer creates a warmer.
func NewWarmer(svc *cache.Service, source Source, logger zerolog.Logger) *Warmer {
	return &Warmer{cache: svc, source: source, logger: logger}
}

// Warm populates the key families for scope and returns a tally. It never
// returns an error and never panics: item failures land in the report, and a
// context deadline aborts remaining items, counting them as skipped.
func (w *Warmer) Warm(ctx context.Context, scope Scope) *Report {
	report := &Report{Scope: scope, StartedAt: time.Now()}

	switch scope {
	case ScopeProperties:
		w.warmLists(ctx, report, "properties", w.source.Properties)
	case ScopeAgents:
		w.warmLists(ctx, report, "agents", w.source.Agents)
	case ScopeTaxonomies:
		w.warmTaxonomies(ctx, report)
	case ScopeAll:
		w.warmLists(ctx, report, "properties", w.source.Properties)
		w.warmLists(ctx, report, "agents", w.source.Agents)
		w.warmTaxonomies(ctx, report)
	default:
		report.Failures = append(report.Failures, Failure{
			Key:    string(scope),
			Reason: "unknown warming scope",
		})
	}

	report.FinishedAt = time.Now()

	w.mu.Lock()
	w.lastWarmed = report.FinishedAt
	w.mu.Unlock()

	w.logger.Info().
		Str("scope", string(scope)).
		Int("warmed", len(report.Warmed)).
		Int("failed", len(report.Failures)).
		Int("skipped", report.Skipped).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("warm: sweep finished")
	return report
}

// LastWarmed returns when the last sweep finished, zero if never.
func (w *Warmer) LastWarmed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastWarmed
}

func (w *Warmer) warmLists(ctx context.Context, report *Report, base string, fetch func(context.Context, int, int) ([]byte, error)) {
	for i, shape := range pageMatrix {
		if ctx.Err() != nil {
			report.Skipped += len(pageMatrix) - i
			return
		}
		key := w.cache.BuildKey(base, map[string]any{
			"page":     shape.Page,
			"per_page": shape.PerPage,
		})
		page, perPage := shape.Page, shape.PerPage
		w.warmOne(ctx, report, key, func(ctx context.Context) ([]byte, error) {
			return fetch(ctx, page, perPage)
		})
	}
}

func (w *Warmer) warmTaxonomies(ctx context.Context, report *Report) {
	for i, name := range taxonomyNames {
		if ctx.Err() != nil {
			report.Skipped += len(taxonomyNames) - i
			return
		}
		key := w.cache.BuildKey("taxonomy_"+name, nil)
		taxonomy := name
		w.warmOne(ctx, report, key, func(ctx context.Context) ([]byte, error) {
			return w.source.Taxonomy(ctx, taxonomy)
		})
	}
}

// warmOne forces a single population. Panics and errors are both contained:
// warming must never surface to request handling.
func (w *Warmer) warmOne(ctx context.Context, report *Report, key string, producer cache.Producer) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("key", key).Any("panic", r).Msg("warm: item panicked")
			report.Failures = append(report.Failures, Failure{
				Key:    key,
				Reason: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	if _, err := w.cache.Remember(ctx, key, cache.DefaultTTL, producer); err != nil {
		w.logger.Warn().Str("key", key).Err(err).Msg("warm: item failed")
		report.Failures = append(report.Failures, Failure{Key: key, Reason: err.Error()})
		return
	}
	report.Warmed = append(report.Warmed, key)
}
