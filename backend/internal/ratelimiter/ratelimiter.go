// Package ratelimiter throttles chat users with one token bucket per user.
package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for one user.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// UserRateLimiter manages rate limiting for multiple users. Buckets idle for
// longer than expiration are dropped on the next sweep.
type UserRateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	capacity   float64
	expiration time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

func New(rate, capacity float64, expiration time.Duration) *UserRateLimiter {
	return NewWithClock(rate, capacity, expiration, time.Now)
}

func NewWithClock(rate, capacity float64, expiration time.Duration, now func() time.Time) *UserRateLimiter {
	return &UserRateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		capacity:   max(capacity, 1),
		expiration: expiration,
		lastSweep:  now(),
		now:        now,
	}
}

// PerMinute allows n actions per minute. A burst of zero or less means n.
func PerMinute(n, burst float64) *UserRateLimiter {
	if burst <= 0 {
		burst = n
	}
	return New(n/60, burst, time.Hour)
}

// Allow takes one token from userId's bucket and reports whether there was one.
func (l *UserRateLimiter) Allow(userId string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[userId]
	if !ok {
		b = &bucket{tokens: l.capacity, lastRefill: now}
		l.buckets[userId] = b
	}

	b.tokens = min(b.tokens+now.Sub(b.lastRefill).Seconds()*l.rate, l.capacity)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// sweep drops idle buckets, at most once per expiration period.
func (l *UserRateLimiter) sweep(now time.Time) {
	if l.expiration <= 0 || now.Sub(l.lastSweep) < l.expiration {
		return
	}
	for id, b := range l.buckets {
		if now.Sub(b.lastRefill) >= l.expiration {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked users.
func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
