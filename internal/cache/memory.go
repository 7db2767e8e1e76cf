package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value      []byte
	expiration time.Time
}

// MemoryStore keeps entries in process memory; a background loop drops expired ones
type MemoryStore struct {
	data    map[string]*entry
	mu      sync.RWMutex
	hits    int64
	misses  int64
	now     func() time.Time
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a store that sweeps expired entries every interval
func NewMemoryStore(interval time.Duration) *MemoryStore {
	if interval <= 0 {
		interval = time.Minute
	}
	s := &MemoryStore{
		data:    make(map[string]*entry),
		now:     time.Now,
		cleanup: time.NewTicker(interval),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.now().After(e.expiration) {
		s.misses++
		return nil, false, nil
	}
	s.hits++
	return append([]byte(nil), e.value...), true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = &entry{
		value:      append([]byte(nil), value...),
		expiration: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Stats returns hit and miss counters
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.hits + s.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(s.hits) / float64(total)
	}
	return Stats{
		Size:    len(s.data),
		Hits:    s.hits,
		Misses:  s.misses,
		HitRate: hitRate,
	}
}

// Stop ends the cleanup goroutine; safe to call more than once
func (s *MemoryStore) Stop() {
	s.once.Do(func() {
		s.cleanup.Stop()
		close(s.done)
	})
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.cleanup.C:
			s.removeExpired()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.data {
		if now.After(e.expiration) {
			delete(s.data, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
