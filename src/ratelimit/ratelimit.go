// Package ratelimit gates booking submission throughput per client.
// Accounting is success-only: Allow inspects the window, Record counts
// an admitted request after its transaction commits, so malformed or
// rejected submissions never consume quota.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter interface {
	Allow(key string) bool
	Record(key string)
}

// SlidingWindow is the single-process implementation: a mutex-guarded
// map of per-key hit timestamps, pruned lazily on window expiry.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (s *SlidingWindow) prune(key string) []time.Time {
	cutoff := s.now().Add(-s.window)
	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(s.hits, key)
		return nil
	}
	s.hits[key] = kept
	return kept
}

func (s *SlidingWindow) Allow(key string) bool {
	if s.limit <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prune(key)) < s.limit
}

func (s *SlidingWindow) Record(key string) {
	if s.limit <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(key)
	s.hits[key] = append(s.hits[key], s.now())
}
