package ratelimit

import (
	"sync"
	"time"
)

// DefaultIdleTTL is how long an untouched client bucket is kept.
const DefaultIdleTTL = 10 * time.Minute

// Config configures a Limiter. Zero values disable the matching limit.
type Config struct {
	// RequestsPerSecond is the sustained request rate per client.
	RequestsPerSecond float64

	// Burst is the bucket capacity per client.
	// Default: twice RequestsPerSecond, at least 1.
	Burst int

	// MaxConcurrent bounds the scans in flight across all clients.
	MaxConcurrent int

	// IdleTTL evicts client buckets not used for this long.
	// Default: DefaultIdleTTL
	IdleTTL time.Duration
}

// Result is the outcome of a rate check.
type Result struct {
	// Allowed is false when the client is over its rate.
	Allowed bool

	// Limit is the client's burst size.
	Limit int64

	// Remaining is the number of requests the client may still burst.
	Remaining int64

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

// Limiter applies a per-client request rate and a shared concurrency cap.
//
// Limiter is safe for concurrent use.
type Limiter struct {
	config     Config
	concurrent *ConcurrentLimiter
	now        func() time.Time

	mu        sync.Mutex
	buckets   map[string]*TokenBucket
	lastSweep time.Time
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	return newLimiter(cfg, time.Now)
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	if cfg.RequestsPerSecond > 0 && cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}

	l := &Limiter{
		config:    cfg,
		now:       now,
		buckets:   make(map[string]*TokenBucket),
		lastSweep: now(),
	}
	if cfg.MaxConcurrent > 0 {
		l.concurrent = NewConcurrentLimiter(cfg.MaxConcurrent)
	}
	return l
}

// Allow consumes one request from key's bucket.
func (l *Limiter) Allow(key string) Result {
	if l.config.RequestsPerSecond <= 0 {
		return Result{Allowed: true}
	}

	bucket := l.bucket(key)
	if bucket.Take(1) {
		return Result{
			Allowed:   true,
			Limit:     bucket.Capacity(),
			Remaining: bucket.Remaining(),
		}
	}
	return Result{
		Allowed:    false,
		Limit:      bucket.Capacity(),
		Remaining:  0,
		RetryAfter: bucket.TimeUntilAvailable(1),
	}
}

// Acquire takes a concurrency slot. It always succeeds when no concurrency
// limit is configured. A successful Acquire must be paired with Release.
func (l *Limiter) Acquire() bool {
	if l.concurrent == nil {
		return true
	}
	return l.concurrent.Acquire()
}

// Release returns a concurrency slot.
func (l *Limiter) Release() {
	if l.concurrent != nil {
		l.concurrent.Release()
	}
}

// Clients returns the number of tracked client buckets.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) bucket(key string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.config.IdleTTL {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = newTokenBucket(int64(l.config.Burst), l.config.RequestsPerSecond, l.now)
		l.buckets[key] = b
	}
	return b
}

// sweepLocked drops buckets idle for longer than IdleTTL. Caller must hold mu.
func (l *Limiter) sweepLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.idleSince()) >= l.config.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
