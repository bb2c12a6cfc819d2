package cache

import "strings"

// TypeOther is the classification for keys no rule recognizes.
const TypeOther = "other"

// DetermineCacheType derives the coarse cache-type label used to partition
// statistics and invalidation scope from a namespace-stripped cache key.
//
// The rules are priority-ordered and intentionally string based; the
// accompanying table-driven tests pin every special case:
//
//  1. "property_location..." classifies as the literal "property_location".
//  2. "taxonomy_<rest>" classifies as <rest>.
//  3. "list_<rest>" classifies as the whole <rest> when it contains "search",
//     otherwise as <rest> up to the next underscore.
//  4. "single_<rest>" classifies as <rest>.
//  5. Anything else classifies as the key up to its first underscore, with a
//     "_search" suffix appended when the key contains "_search".
func DetermineCacheType(key string) string {
	if key == "" {
		return TypeOther
	}

	if strings.HasPrefix(key, "property_location") {
		return "property_location"
	}

	if rest, ok := strings.CutPrefix(key, "taxonomy_"); ok {
		if rest == "" {
			return TypeOther
		}
		return rest
	}

	if rest, ok := strings.CutPrefix(key, "list_"); ok {
		if rest == "" {
			return TypeOther
		}
		if strings.Contains(rest, "search") {
			return rest
		}
		return headSegment(rest)
	}

	if rest, ok := strings.CutPrefix(key, "single_"); ok {
		if rest == "" {
			return TypeOther
		}
		return rest
	}

	head := headSegment(key)
	if strings.Contains(key, "_search") {
		return head + "_search"
	}
	return head
}

// headSegment returns s up to its first underscore, or all of s when it has
// none.
func headSegment(s string) string {
	if idx := strings.Index(s, "_"); idx >= 0 {
		return s[:idx]
	}
	return s
}
