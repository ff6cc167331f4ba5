/*
Package limiter throttles form submissions per client IP address.

It keeps one token bucket (rate.Limiter) per IP. Buckets that have refilled
completely are dropped during a periodic sweep so the map does not grow
without bound.
*/
package limiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"talkroom/internal/pkg/errs"
	"talkroom/internal/pkg/logx"
)

// sweepInterval is how often idle buckets are removed.
const sweepInterval = 3 * time.Minute

// FailureFunc reports a throttled request.
type FailureFunc func(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError)

// IPRateLimiter implements a rate limiter keyed by client IP address.
type IPRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter

	// r is the refill rate in events per second, b the bucket size.
	r rate.Limit
	b int

	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter allows b requests at once per IP, refilled at r per second.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limits:    make(map[string]*rate.Limiter),
		r:         r,
		b:         b,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow consumes one token from the bucket of ip.
func (i *IPRateLimiter) Allow(ip string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= sweepInterval {
		i.sweep(now)
	}

	limiter, exists := i.limits[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = limiter
	}
	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked IPs.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limits)
}

// sweep drops buckets that are full again. Caller holds mu.
func (i *IPRateLimiter) sweep(now time.Time) {
	removed := 0
	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			removed++
		}
	}
	i.lastSweep = now
	if removed > 0 {
		logx.Debug("Rate limiter sweep finished.", "removed", removed, "remaining", len(i.limits))
	}
}

// Middleware throttles POST requests. Pages are still served to throttled
// clients; only submissions answer 429.
func (i *IPRateLimiter) Middleware(fail FailureFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			if !i.Allow(clientIP(r)) {
				logx.FromContext(r.Context()).Warn().Str("path", r.URL.Path).Msg("Rate limit exceeded.")
				fail(w, r, errs.NewError(errs.ErrRateLimitExceeded))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}
	return ip
}
