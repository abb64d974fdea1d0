package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/reacthost/console/api/internal/metrics"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter is a per-client-IP token bucket.
type RateLimiter struct {
	visitors sync.Map
	limit    rate.Limit
	burst    int
	route    string
	metrics  *metrics.Recorder
}

// NewRateLimiter allows perMinute requests per IP with a burst of the same
// size. Idle visitors are evicted until ctx is done.
func NewRateLimiter(ctx context.Context, route string, perMinute int, recorder *metrics.Recorder) *RateLimiter {
	m := &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		route:   route,
		metrics: recorder,
	}
	go m.cleanupVisitors(ctx)
	return m
}

func (m *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		v, _ := m.visitors.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(m.limit, m.burst)})
		vis := v.(*visitor)
		vis.lastSeen.Store(time.Now().UnixNano())

		if !vis.limiter.Allow() {
			m.metrics.RateLimited(m.route)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"message": "Rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle(3 * time.Minute)
		}
	}
}

func (m *RateLimiter) evictIdle(idle time.Duration) {
	cutoff := time.Now().Add(-idle).UnixNano()
	m.visitors.Range(func(key, value any) bool {
		if value.(*visitor).lastSeen.Load() < cutoff {
			m.visitors.Delete(key)
		}
		return true
	})
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
