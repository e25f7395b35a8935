package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rohanj-dev/skystash/internal/utils"
)

// RateLimiter rejects clients that exceed a fixed number of requests per
// window, keyed by client address. Counters reset when a new window starts.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	counts  map[string]int
	started time.Time
	now     func() time.Time
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:     max,
		window:  window,
		counts:  make(map[string]int),
		started: time.Now(),
		now:     time.Now,
	}
}

// allow records one request for key and reports whether it is within budget.
func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.now().Sub(l.started) >= l.window {
		l.counts = make(map[string]int)
		l.started = l.now()
	}

	l.counts[key]++
	return l.counts[key] <= l.max
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		if !l.allow(host) {
			utils.JSONResponse(w, http.StatusTooManyRequests, utils.Payload{
				Success: false,
				Message: "Too many requests, try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
