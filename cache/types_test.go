package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The classifier is deliberately string based with several special cases;
// this table pins every documented rule.
func TestDetermineCacheType(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		// Rule 1: property_location is a literal type.
		{"location bare", "property_location", "property_location"},
		{"location scoped", "property_location_usa_tx_austin", "property_location"},

		// Rule 2: taxonomy_ strips the prefix.
		{"taxonomy", "taxonomy_property_type", "property_type"},
		{"taxonomy status", "taxonomy_property_status", "property_status"},
		{"taxonomy empty remainder", "taxonomy_", TypeOther},

		// Rule 3: list_ keeps the whole remainder only when it contains
		// "search".
		{"list plain", "list_properties_abc", "properties"},
		{"list search", "list_properties_search_abc", "properties_search_abc"},
		{"list single segment", "list_agents", "agents"},
		{"list empty remainder", "list_", TypeOther},

		// Rule 4: single_ strips the prefix.
		{"single", "single_property_42", "property_42"},
		{"single empty remainder", "single_", TypeOther},

		// Rule 5: fallback takes the head segment, with a _search suffix
		// when the key carries one.
		{"fallback list shape", "properties_abc123", "properties"},
		{"fallback search", "agent_search_abc", "agent_search"},
		{"fallback no underscore", "agencies", "agencies"},

		{"empty key", "", TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineCacheType(tt.key))
		})
	}
}
