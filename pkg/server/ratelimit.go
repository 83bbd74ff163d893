package server

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"mercator-hq/leakscan/pkg/config"
	"mercator-hq/leakscan/pkg/ratelimit"
)

// newLimiter returns nil when cfg imposes no limit.
func newLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	if !cfg.Enabled && cfg.MaxConcurrent <= 0 {
		return nil
	}
	rlc := ratelimit.Config{MaxConcurrent: cfg.MaxConcurrent}
	if cfg.Enabled {
		rlc.RequestsPerSecond = cfg.RequestsPerSecond
		rlc.Burst = cfg.Burst
	}
	return ratelimit.New(rlc)
}

// rateLimit throttles next per client address and caps scans in flight.
//
// Headers set on every limited response:
//   - X-RateLimit-Limit: the client's burst size
//   - X-RateLimit-Remaining: requests left in the burst
//   - Retry-After: whole seconds to wait (429 only)
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := s.limiter.Allow(clientIP(r))
		if res.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		}
		if !res.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res)))
			s.recordThrottled("rate")
			writeError(w, http.StatusTooManyRequests, ErrorTypeRateLimited, "too many scan requests")
			return
		}

		if !s.limiter.Acquire() {
			s.recordThrottled("concurrency")
			writeError(w, http.StatusServiceUnavailable, ErrorTypeServerBusy, "too many scans in progress")
			return
		}
		defer s.limiter.Release()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) recordThrottled(reason string) {
	if s.metrics != nil {
		s.metrics.RecordThrottled(reason)
	}
	s.logger.Debug("scan request throttled", "reason", reason)
}

func retryAfterSeconds(res ratelimit.Result) int {
	secs := int(math.Ceil(res.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// clientIP returns the host part of the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
