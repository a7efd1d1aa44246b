// Package ratelimit throttles vote and view requests per caller.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a caller's bucket survives without traffic.
const idleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per key. Buckets idle for longer than
// idleTTL are swept on a background ticker until Stop is called.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*entry
	limit   rate.Limit
	burst   int
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func New(rps float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		buckets: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.sweepLoop(idleTTL / 2)
	return l
}

// Allow reports whether the caller identified by key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = l.now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Limiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := l.now().Add(-idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
