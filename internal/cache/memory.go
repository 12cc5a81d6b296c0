package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Values are stored JSON-encoded so
// callers observe the same copy semantics as with Redis. Expired entries are
// swept by Set once the earliest known expiry has passed.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time

	// nextExpiry is the earliest expiresAt in entries, zero when none expire.
	nextExpiry time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return false, nil
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key. A non-positive ttl never expires.
func (s *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	now := s.now()
	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.nextExpiry.IsZero() && !now.Before(s.nextExpiry) {
		s.sweep(now)
	}
	s.entries[key] = entry
	if !entry.expiresAt.IsZero() && (s.nextExpiry.IsZero() || entry.expiresAt.Before(s.nextExpiry)) {
		s.nextExpiry = entry.expiresAt
	}
	return nil
}

// sweep drops expired entries and recomputes nextExpiry. Caller holds mu.
func (s *MemoryStore) sweep(now time.Time) {
	s.nextExpiry = time.Time{}
	for key, entry := range s.entries {
		if entry.expiresAt.IsZero() {
			continue
		}
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			continue
		}
		if s.nextExpiry.IsZero() || entry.expiresAt.Before(s.nextExpiry) {
			s.nextExpiry = entry.expiresAt
		}
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored keys, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
