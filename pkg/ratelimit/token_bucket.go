package ratelimit

import (
	"math"
	"sync"
	"time"
)

// TokenBucket allows bursts up to its capacity while holding the average
// rate at refillRate tokens per second.
//
// TokenBucket is safe for concurrent use.
type TokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket.
//
// Example:
//
//	// 10 requests/sec average, burst up to 50
//	bucket := NewTokenBucket(50, 10)
func NewTokenBucket(capacity int64, refillRate float64) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity int64, refillRate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Take consumes n tokens if they are available.
func (tb *TokenBucket) Take(n int64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	return false
}

// Remaining returns the whole tokens currently available.
func (tb *TokenBucket) Remaining() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	return int64(tb.tokens)
}

// Capacity returns the burst size.
func (tb *TokenBucket) Capacity() int64 {
	return int64(tb.capacity)
}

// TimeUntilAvailable returns how long until n tokens will be available, or
// 0 if they are available now.
func (tb *TokenBucket) TimeUntilAvailable(n int64) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refillLocked()
	missing := float64(n) - tb.tokens
	if missing <= 0 {
		return 0
	}
	if tb.refillRate <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(missing / tb.refillRate * float64(time.Second))
}

// idleSince returns the last time the bucket was touched.
func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill
}

// refillLocked adds the tokens earned since the last refill. Caller must
// hold mu.
func (tb *TokenBucket) refillLocked() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}
