package cache

import (
	"context"
	"time"
)

// Size budget bounds in megabytes.
const (
	minSizeLimitMB = 1
	maxSizeLimitMB = 1000
)

// MaxSizeBytes returns the configured cache size ceiling in bytes, clamped to
// [1MB, 1000MB].
func (s *Service) MaxSizeBytes() int64 {
	mb := s.settings.CacheSizeLimitMB
	if mb < minSizeLimitMB {
		mb = minSizeLimitMB
	}
	if mb > maxSizeLimitMB {
		mb = maxSizeLimitMB
	}
	return int64(mb) * 1024 * 1024
}

// CheckAndPrune measures the aggregate cache size and, when over budget,
// deletes entries oldest first until the remainder fits. Returns the number
// of entries evicted.
//
// Known edge case: a single entry larger than the whole budget is evicted
// like any other, so one pass can free more than strictly necessary. That is
// logged, not corrected.
func (s *Service) CheckAndPrune(ctx context.Context) (int, error) {
	maxSize := s.MaxSizeBytes()

	current, err := s.store.TotalBytes(ctx)
	if err != nil {
		return 0, err
	}
	if current <= maxSize {
		return 0, nil
	}

	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	evicted := 0
	var freed int64
	for _, entry := range entries {
		if current-freed <= maxSize {
			break
		}
		size := int64(len(entry.Value))
		if size > maxSize {
			s.logger.Warn().
				Str("key", entry.Key).
				Int64("bytes", size).
				Msg("cache: single entry exceeds size budget")
		}
		if _, err := s.store.DeleteMatching(ctx, []string{entry.Key}); err != nil {
			return evicted, err
		}
		freed += size
		evicted++
	}

	s.pruneMu.Lock()
	s.lastPrune = time.Now()
	s.pruneMu.Unlock()

	s.logger.Info().
		Int("evicted", evicted).
		Int64("freed_bytes", freed).
		Int64("max_bytes", maxSize).
		Msg("cache: pruned to size budget")
	return evicted, nil
}

// LastPrune returns when the last prune completed, zero if never.
func (s *Service) LastPrune() time.Time {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()
	return s.lastPrune
}
