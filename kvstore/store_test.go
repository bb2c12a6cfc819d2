package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		value   string
		want    bool
	}{
		{"exact match", "realty_api_properties", "realty_api_properties", true},
		{"exact mismatch", "realty_api_properties", "realty_api_agents", false},
		{"trailing star", "realty_api_properties*", "realty_api_properties_abc", true},
		{"trailing star empty tail", "realty_api_properties*", "realty_api_properties", true},
		{"trailing star wrong prefix", "realty_api_properties*", "realty_api_agents_abc", false},
		{"leading star", "*property_42", "realty_api_single_property_42", true},
		{"leading star mismatch", "*property_42", "realty_api_single_property_43", false},
		{"both ends", "*property_42*", "realty_api_single_property_42_extra", true},
		{"both ends middle only", "*property_42*", "property_42", true},
		{"middle segment order", "a*b*c", "a_x_b_y_c", true},
		{"middle segment out of order", "a*b*c", "a_x_c_y_b", false},
		{"lone star", "*", "anything", true},
		{"empty value trailing star", "*", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPattern(tt.pattern, tt.value))
		})
	}
}
