package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agentstation/motherdb/internal/server/response"
)

// RateLimiter allows a fixed number of requests per client IP per window.
// Idle clients expire from the underlying cache on their own.
type RateLimiter struct {
	visitors *gocache.Cache
	limit    int
	window   time.Duration
	mu       sync.Mutex
	logger   *zerolog.Logger
}

// visitor tracks the current window of one client.
type visitor struct {
	count int
	reset time.Time
}

// NewRateLimiter creates a limiter of limit requests per minute per IP.
func NewRateLimiter(limit int, logger *zerolog.Logger) *RateLimiter {
	return newRateLimiter(limit, time.Minute, logger)
}

func newRateLimiter(limit int, window time.Duration, logger *zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: gocache.New(10*window, 5*window),
		limit:    limit,
		window:   window,
		logger:   logger,
	}
}

// Allow reports whether a request from ip fits in the current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, _ := rl.visitors.Get(ip)
	vis, _ := v.(*visitor)
	if vis == nil || now.After(vis.reset) {
		vis = &visitor{reset: now.Add(rl.window)}
	}
	vis.count++
	rl.visitors.SetDefault(ip, vis)

	return vis.count <= rl.limit
}

// RateLimit rejects requests over the limiter's budget with 429.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.Allow(ip) {
				rl.logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				response.RateLimited(w, "Too many requests. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then the remote host.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
