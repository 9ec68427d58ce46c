package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/scoresnap/internal/api/apierr"
	"github.com/mcoot/scoresnap/internal/dependencies/clock"
)

// idleLimiterTTL is how long an unused per-client limiter is kept
const idleLimiterTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP with a token bucket
type RateLimiter struct {
	perMinute float64
	burst     int
	clock     clock.Clock

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute float64, burst int, clock clock.Clock) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		perMinute: perMinute,
		burst:     burst,
		clock:     clock,
		visitors:  make(map[string]*visitor),
	}
}

// Allow reports whether a request from key may proceed now
func (l *RateLimiter) Allow(key string) bool {
	if l.perMinute <= 0 {
		return true
	}
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		l.evictIdle(now)
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.perMinute/60), l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleLimiterTTL {
			delete(l.visitors, key)
		}
	}
}

// Middleware answers 429 once a client exceeds its rate
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			apierr.WriteError(w, apierr.NewRateLimitedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
