// Package ratelimit throttles repeated user gestures with token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrThrottled is returned when a gesture repeats faster than allowed.
var ErrThrottled = errors.New("too many repeated actions, slow down")

// bucket tracks the token state for a single key.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Limiter is a token-bucket limiter keyed by arbitrary strings. Each key
// holds up to rate tokens which refill evenly over window.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time // injectable clock for testing
}

// New creates a Limiter that allows rate events per window and key.
func New(rate int, window time.Duration) *Limiter {
	if rate < 1 {
		rate = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// getBucket must be called with l.mu held.
func (l *Limiter) getBucket(key string) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.rate), lastRefill: l.now()}
		l.buckets[key] = b
	}
	return b
}

// refill must be called with l.mu held.
func (l *Limiter) refill(b *bucket) {
	now := l.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * float64(l.rate) / l.window.Seconds()
	if b.tokens > float64(l.rate) {
		b.tokens = float64(l.rate)
	}
	b.lastRefill = now
}

// Allow consumes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.getBucket(key)
	l.refill(b)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Status returns the bucket size, the whole tokens left and when the
// bucket will be full again.
func (l *Limiter) Status(key string) (limit, remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.getBucket(key)
	l.refill(b)

	limit = l.rate
	remaining = int(b.tokens)
	deficit := float64(l.rate) - b.tokens
	if deficit <= 0 {
		return limit, remaining, l.now()
	}
	perSecond := float64(l.rate) / l.window.Seconds()
	return limit, remaining, l.now().Add(time.Duration(deficit / perSecond * float64(time.Second)))
}

// Prune drops buckets that have refilled completely, keeping the map
// bounded over a long session. It returns the number removed.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for key, b := range l.buckets {
		l.refill(b)
		if b.tokens >= float64(l.rate) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// Gesture identifies one user action on one trip.
type Gesture struct {
	Identity string
	Action   string
	TripID   string
}

func (g Gesture) Key() string {
	return g.Identity + "|" + g.Action + "|" + g.TripID
}

// Check returns ErrThrottled when g repeats too quickly. A nil Limiter
// allows everything.
func (l *Limiter) Check(g Gesture) error {
	if l == nil || l.Allow(g.Key()) {
		return nil
	}
	return fmt.Errorf("%s on %s: %w", g.Action, g.TripID, ErrThrottled)
}
