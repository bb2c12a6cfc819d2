package kvstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	seq     int64
}

type memoryEntry struct {
	value     []byte
	seq       int64
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Get retrieves a value. Returns (nil, false, nil) on miss or expiry.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if entry.expired(time.Now()) {
		// Clean up lazily, but only if the slot still holds the entry we
		// read: a Set racing between the two locks writes a fresh one.
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a value. A ttl <= 0 stores the value without expiry. An
// overwrite keeps the original insertion sequence so eviction order reflects
// first-write time.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok && !existing.expired(time.Now()) {
		existing.value = value
		existing.expiresAt = expiresAt
		return nil
	}
	s.seq++
	s.entries[key] = &memoryEntry{value: value, seq: s.seq, expiresAt: expiresAt}
	return nil
}

// DeleteMatching removes every key matching any pattern. Idempotent.
func (s *MemoryStore) DeleteMatching(_ context.Context, patterns []string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key := range s.entries {
		for _, pattern := range patterns {
			if MatchPattern(pattern, key) {
				delete(s.entries, key)
				removed++
				break
			}
		}
	}
	return removed, nil
}

// ListAll returns live entries in insertion order, oldest first.
func (s *MemoryStore) ListAll(_ context.Context) ([]Entry, error) {
	now := time.Now()

	s.mu.RLock()
	entries := make([]Entry, 0, len(s.entries))
	for key, entry := range s.entries {
		if entry.expired(now) {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: entry.value, Seq: entry.seq})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

// TotalBytes sums the byte length of all live values.
func (s *MemoryStore) TotalBytes(_ context.Context) (int64, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, entry := range s.entries {
		if entry.expired(now) {
			continue
		}
		total += int64(len(entry.value))
	}
	return total, nil
}

// Len returns the number of live entries. Test helper.
func (s *MemoryStore) Len() int {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
