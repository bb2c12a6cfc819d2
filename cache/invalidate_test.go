package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwhitmore/realtyops/settings"
)

func TestInvalidationPatterns(t *testing.T) {
	svc, _ := newTestService(t, nil)

	tests := []struct {
		name  string
		types []string
		opts  InvalidateOptions
		want  []string
	}{
		{
			name:  "list family",
			types: []string{"list_properties"},
			want: []string{
				"realty_api_properties*",
				"timeout_realty_api_properties*",
				"realty_api_properties_search*",
				"timeout_realty_api_properties_search*",
			},
		},
		{
			name:  "taxonomy family",
			types: []string{"taxonomy_property_types"},
			want: []string{
				"*property_types*",
				"*timeout_property_types*",
			},
		},
		{
			name:  "single property with related caches",
			types: []string{"single_property"},
			opts:  InvalidateOptions{ID: 42},
			want: []string{
				"*property_42*",
				"*timeout_property_42*",
				"*property_reviews_property_id_42*",
				"*timeout_property_reviews_property_id_42*",
				"*similar_properties_42*",
				"*timeout_similar_properties_42*",
			},
		},
		{
			name:  "single agency with related caches",
			types: []string{"single_agency"},
			opts:  InvalidateOptions{ID: 7},
			want: []string{
				"*agency_7*",
				"*timeout_agency_7*",
				"*agency_reviews_agency_id_7*",
				"*timeout_agency_reviews_agency_id_7*",
				"*agency_agents_7*",
				"*timeout_agency_agents_7*",
				"*agency_properties_7*",
				"*timeout_agency_properties_7*",
			},
		},
		{
			name:  "single without id contributes nothing",
			types: []string{"single_property"},
			want:  nil,
		},
		{
			name:  "property_location unscoped",
			types: []string{"property_location"},
			want: []string{
				"realty_api_property_location*",
				"timeout_realty_api_property_location*",
			},
		},
		{
			name:  "property_location scoped by slugs",
			types: []string{"property_location"},
			opts:  InvalidateOptions{CountrySlug: "usa", StateSlug: "ca"},
			want: []string{
				"realty_api_property_location_usa_ca*",
				"timeout_realty_api_property_location_usa_ca*",
			},
		},
		{
			name:  "unknown family skipped",
			types: []string{"bogus"},
			want:  nil,
		},
		{
			name:  "multiple families accumulate",
			types: []string{"list_agents", "taxonomy_property_status"},
			want: []string{
				"realty_api_agents*",
				"timeout_realty_api_agents*",
				"realty_api_agents_search*",
				"timeout_realty_api_agents_search*",
				"*property_status*",
				"*timeout_property_status*",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.InvalidationPatterns(tt.types, tt.opts))
		})
	}
}

func TestInvalidate_NoPatternsIsNoop(t *testing.T) {
	svc, _ := newTestService(t, nil)

	removed, err := svc.Invalidate(context.Background(), nil, InvalidateOptions{})
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestInvalidate_SingleIDIsScoped(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	producer := sentinelProducer()

	key42 := svc.BuildKey("single_property_42", nil)
	key43 := svc.BuildKey("single_property_43", nil)
	_, err := svc.Remember(ctx, key42, time.Hour, producer)
	require.NoError(t, err)
	_, err = svc.Remember(ctx, key43, time.Hour, producer)
	require.NoError(t, err)

	removed, err := svc.Invalidate(ctx, []string{"single_property"}, InvalidateOptions{ID: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, ok, err := store.Get(ctx, key42)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, key43)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInvalidate_RelatedCachesSwept(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, nil)
	producer := sentinelProducer()

	keys := []string{
		svc.BuildKey("single_property_42", nil),
		svc.BuildKey("property_reviews_property_id_42", nil),
		svc.BuildKey("similar_properties_42", nil),
	}
	for _, key := range keys {
		_, err := svc.Remember(ctx, key, time.Hour, producer)
		require.NoError(t, err)
	}

	removed, err := svc.Invalidate(ctx, []string{"single_property"}, InvalidateOptions{ID: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, 0, store.Len())
}

func TestInvalidate_ExpiryTwinRowsSwept(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, settings.Default())

	// Option-table backed deployments keep a timeout_ sibling per entry.

	require.NoError(t, store.Set(ctx, "realty_api_properties_abc", []byte("data"), 0))
	require.NoError(t, store.Set(ctx, "timeout_realty_api_properties_abc", []byte("1767225600"), 0))

	removed, err := svc.Invalidate(ctx, []string{"list_properties"}, InvalidateOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 0, store.Len())
}
