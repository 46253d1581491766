// Package ratelimit provides per-caller token-bucket rate limiters.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per caller key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter creates a limiter granting rps requests per second per
// key with the given burst. A burst below one is raised to one.
func NewKeyedLimiter(rps float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		rps:      rate.Limit(rps),
		burst:    max(burst, 1),
		now:      time.Now,
	}
}

// Allow reports whether key may make a request now, consuming a token if so.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.rps, kl.burst)}
		kl.limiters[key] = e
	}
	now := kl.now()
	e.lastSeen = now
	kl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Sweep drops buckets idle for longer than idle and returns how many were
// removed.
func (kl *KeyedLimiter) Sweep(idle time.Duration) int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	cutoff := kl.now().Add(-idle)
	removed := 0
	for key, e := range kl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(kl.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}
