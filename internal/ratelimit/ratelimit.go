// Package ratelimit provides the per-key throttle guarding the vote
// endpoint against bursts.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the contract the vote processor depends on. The in-process
// implementation below is per-instance and approximate; multi-instance
// deployments can inject one backed by a shared counter store instead.
type Limiter interface {
	Allow(key string) bool
}

type window struct {
	count int
	start time.Time
}

// SlidingWindow allows up to limit calls per key within each window.
type SlidingWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*window
	now     func() time.Time
}

// NewSlidingWindow returns a limiter allowing limit calls per window.
// Non-positive arguments fall back to the defaults (10 per 5s).
func NewSlidingWindow(limit int, windowDur time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 10
	}
	if windowDur <= 0 {
		windowDur = 5 * time.Second
	}
	return &SlidingWindow{
		limit:   limit,
		window:  windowDur,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *SlidingWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.start) > l.window {
		l.entries[key] = &window{count: 1, start: now}
		l.maybePrune(now)
		return true
	}
	if e.count >= l.limit {
		return false
	}
	e.count++
	return true
}

// maybePrune drops expired windows once the map grows past a threshold,
// keeping memory bounded under many distinct keys. Caller holds the lock.
func (l *SlidingWindow) maybePrune(now time.Time) {
	if len(l.entries) < 4096 {
		return
	}
	for k, e := range l.entries {
		if now.Sub(e.start) > l.window {
			delete(l.entries, k)
		}
	}
}
