package cache

import (
	"context"
	"fmt"
	"strings"
)

// ExpiryTwinPrefix marks the expiry-metadata sibling row kept by option-table
// backed stores. Every data pattern gets a twin so those rows are cleared in
// the same sweep; stores with native TTLs simply match nothing.
const ExpiryTwinPrefix = "timeout_"

// InvalidateOptions scope an invalidation sweep.
type InvalidateOptions struct {
	// ID is the entity id for single_* families. Families requiring an id
	// are skipped when it is zero.
	ID int

	// Location slugs narrow a property_location invalidation.
	CountrySlug string
	StateSlug   string
	CitySlug    string
}

// relatedCaches maps a single-entity family to the auxiliary cache key
// templates invalidated alongside it.
var relatedCaches = map[string][]string{
	"property": {"property_reviews_property_id_%d", "similar_properties_%d"},
	"agent":    {"agent_reviews_agent_id_%d", "agent_properties_%d"},
	"agency":   {"agency_reviews_agency_id_%d", "agency_agents_%d", "agency_properties_%d"},
}

// Invalidate bulk-deletes the key families named by types. Deletion is
// best-effort and eventually consistent: a read racing the sweep may observe
// either the old or the already-deleted state, and a miss immediately after
// Invalidate re-runs the producer.
func (s *Service) Invalidate(ctx context.Context, types []string, opts InvalidateOptions) (int64, error) {
	patterns := s.InvalidationPatterns(types, opts)
	if len(patterns) == 0 {
		return 0, nil
	}

	removed, err := s.store.DeleteMatching(ctx, patterns)
	if err != nil {
		return 0, err
	}
	s.logger.Debug().
		Strs("types", types).
		Int("patterns", len(patterns)).
		Int64("removed", removed).
		Msg("cache: invalidated")
	return removed, nil
}

// InvalidationPatterns builds the glob patterns for the requested families,
// each data pattern followed by its expiry twin. Unrecognized families and
// single_* families without an id contribute nothing.
func (s *Service) InvalidationPatterns(types []string, opts InvalidateOptions) []string {
	ns := s.keyer.Namespace
	var patterns []string

	add := func(p string) {
		patterns = append(patterns, p, expiryTwin(p))
	}

	for _, t := range types {
		switch {
		case t == "property_location":
			base := ns + "_property_location"
			for _, slug := range []string{opts.CountrySlug, opts.StateSlug, opts.CitySlug} {
				if slug != "" {
					base += "_" + slug
				}
			}
			add(base + "*")

		case strings.HasPrefix(t, "taxonomy_"):
			name := strings.TrimPrefix(t, "taxonomy_")
			if name == "" {
				continue
			}
			add("*" + name + "*")

		case strings.HasPrefix(t, "list_"):
			name := strings.TrimPrefix(t, "list_")
			if name == "" {
				continue
			}
			add(ns + "_" + name + "*")
			add(ns + "_" + name + "_search*")

		case strings.HasPrefix(t, "single_"):
			name := strings.TrimPrefix(t, "single_")
			if name == "" || opts.ID == 0 {
				continue
			}
			add(fmt.Sprintf("*%s_%d*", name, opts.ID))
			for _, tmpl := range relatedCaches[name] {
				add("*" + fmt.Sprintf(tmpl, opts.ID) + "*")
			}
		}
	}
	return patterns
}

// expiryTwin derives the expiry-metadata pattern for a data pattern.
func expiryTwin(pattern string) string {
	if rest, ok := strings.CutPrefix(pattern, "*"); ok {
		return "*" + ExpiryTwinPrefix + rest
	}
	return ExpiryTwinPrefix + pattern
}
