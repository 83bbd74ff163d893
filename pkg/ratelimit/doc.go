// Package ratelimit throttles scan requests per client.
//
// Two independent limits are available:
//
//   - A token bucket per client key (typically the remote IP) bounds the
//     request rate while allowing short bursts.
//   - A shared concurrency limit bounds the number of scans in flight.
//
// Idle client buckets are evicted so that the key space cannot grow without
// bound.
//
// # Usage
//
//	limiter := ratelimit.New(ratelimit.Config{
//	    RequestsPerSecond: 20,
//	    Burst:             40,
//	    MaxConcurrent:     8,
//	})
//
//	if res := limiter.Allow(clientIP); !res.Allowed {
//	    // reject, retry after res.RetryAfter
//	}
//	if !limiter.Acquire() {
//	    // too many scans in flight
//	}
//	defer limiter.Release()
package ratelimit
