// Package ratelimit tracks a token-bucket limiter per key, dropping entries
// that have been idle for a while.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	idleCutoff      = 10 * time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rps     float64
	stopCh  chan struct{}
}

func New(rps float64) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		rps:     rps,
		stopCh:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		// fractional rates would truncate to a zero burst and reject everything
		burst := int(l.rps * 2)
		if burst < 1 {
			burst = 1
		}
		e = &entry{
			limiter: rate.NewLimiter(rate.Limit(l.rps), burst),
		}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()

	return e.limiter.Allow()
}

func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

func (l *Limiter) Stop() {
	close(l.stopCh)
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-idleCutoff)
			for key, e := range l.entries {
				if e.lastSeen.Before(cutoff) {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
