package apikey

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory API key store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record // keyed by token
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Insert adds a record. Returns ErrDuplicateKey on token collision.
func (s *MemoryStore) Insert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.Key]; exists {
		return ErrDuplicateKey
	}
	copied := *record
	s.records[record.Key] = &copied
	return nil
}

// FindByKey retrieves a record by exact token match.
func (s *MemoryStore) FindByKey(_ context.Context, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

// UpdateStatus transitions a record's status.
func (s *MemoryStore) UpdateStatus(_ context.Context, key string, status Status) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return 0, nil
	}
	record.Status = status
	return 1, nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[key]; !ok {
		return 0, nil
	}
	delete(s.records, key)
	return 1, nil
}

// Touch increments usage and stamps last_used.
func (s *MemoryStore) Touch(_ context.Context, key string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[key]; ok {
		record.UsageCount++
		used := usedAt
		record.LastUsed = &used
	}
	return nil
}

// ExpireOverdue marks active records past expiry as expired.
func (s *MemoryStore) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swept int64
	for _, record := range s.records {
		if record.Status == StatusActive && record.ExpiresAt != nil && !record.ExpiresAt.After(now) {
			record.Status = StatusExpired
			swept++
		}
	}
	return swept, nil
}

// ListByUser returns a user's records, newest first.
func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for _, record := range s.records {
		if record.UserID == userID {
			copied := *record
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
