// Package settings holds the typed configuration consumed by the caching
// core, loaded from environment variables with sensible defaults.
package settings

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// TTLUnset marks a per-entity cache time that has not been configured.
// Unset mappings fall back to the 24-hour default; an explicit 0 disables
// caching for that entity family.
const TTLUnset = -1

// Settings enumerates every recognized option of the caching core.
type Settings struct {
	// EnableCaching is the global caching switch. When false, Remember
	// bypasses the store entirely.
	EnableCaching bool `env:"REALTY_ENABLE_CACHING" envDefault:"true"`

	// Namespace prefixes every cache key.
	Namespace string `env:"REALTY_CACHE_NAMESPACE" envDefault:"realty_api"`

	// CacheSizeLimitMB is the cache size ceiling in megabytes. Clamped to
	// [1, 1000] when converted to bytes.
	CacheSizeLimitMB int `env:"REALTY_CACHE_SIZE_LIMIT" envDefault:"50"`

	// Per-entity cache times in seconds. TTLUnset means not configured.
	PropertiesCacheTime int `env:"REALTY_PROPERTIES_CACHE_TIME" envDefault:"-1"`
	PropertyCacheTime   int `env:"REALTY_PROPERTY_CACHE_TIME" envDefault:"-1"`
	AgentsCacheTime     int `env:"REALTY_AGENTS_CACHE_TIME" envDefault:"-1"`
	AgentCacheTime      int `env:"REALTY_AGENT_CACHE_TIME" envDefault:"-1"`
	AgenciesCacheTime   int `env:"REALTY_AGENCIES_CACHE_TIME" envDefault:"-1"`
	AgencyCacheTime     int `env:"REALTY_AGENCY_CACHE_TIME" envDefault:"-1"`
	TaxonomyCacheTime   int `env:"REALTY_TAXONOMY_CACHE_TIME" envDefault:"-1"`

	// Warming schedule: one of hourly, twicedaily, daily, weekly.
	WarmingSchedule string `env:"REALTY_CACHE_WARMING_SCHEDULE" envDefault:"daily"`
	WarmingHour     int    `env:"REALTY_CACHE_WARMING_HOUR" envDefault:"3"`
	WarmingMinute   int    `env:"REALTY_CACHE_WARMING_MINUTE" envDefault:"0"`
	Timezone        string `env:"REALTY_CACHE_WARMING_TZ" envDefault:"UTC"`
}

// Default returns settings with every option at its default value.
func Default() *Settings {
	return &Settings{
		EnableCaching:       true,
		Namespace:           "realty_api",
		CacheSizeLimitMB:    50,
		PropertiesCacheTime: TTLUnset,
		PropertyCacheTime:   TTLUnset,
		AgentsCacheTime:     TTLUnset,
		AgentCacheTime:      TTLUnset,
		AgenciesCacheTime:   TTLUnset,
		AgencyCacheTime:     TTLUnset,
		TaxonomyCacheTime:   TTLUnset,
		WarmingSchedule:     "daily",
		WarmingHour:         3,
		WarmingMinute:       0,
		Timezone:            "UTC",
	}
}

// Load reads settings from the environment.
func Load() (*Settings, error) {
	cfg := &Settings{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option ranges that env parsing cannot express.
func (s *Settings) Validate() error {
	if s.Namespace == "" {
		return fmt.Errorf("settings: namespace must not be empty")
	}
	if s.WarmingHour < 0 || s.WarmingHour > 23 {
		return fmt.Errorf("settings: warming hour %d out of range", s.WarmingHour)
	}
	if s.WarmingMinute < 0 || s.WarmingMinute > 59 {
		return fmt.Errorf("settings: warming minute %d out of range", s.WarmingMinute)
	}
	switch s.WarmingSchedule {
	case "hourly", "twicedaily", "daily", "weekly":
	default:
		return fmt.Errorf("settings: unknown warming schedule %q", s.WarmingSchedule)
	}
	return nil
}
