package httpmiddleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client rate limiter.
type RateLimitConfig struct {
	// Max is the allowed request count per Window; it also sets the burst.
	Max int
	// Window is the period over which Max requests are allowed.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Defaults to client IP.
	KeyFunc func(*http.Request) string
}

// client pairs a token bucket with its last activity time so stale entries
// can be evicted.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns a middleware enforcing a per-key token bucket limit of
// Max requests per Window. Non-positive Max or Window fall back to 100 per
// minute. Over-limit requests get 429 with a JSON body and a Retry-After
// header. Stale keys are evicted lazily on new-key insertion.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	if cfg.Max <= 0 {
		cfg.Max = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	limit := rate.Every(cfg.Window / time.Duration(cfg.Max))

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	get := func(key string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		c, ok := clients[key]
		if !ok {
			// Evict buckets idle for longer than a full window before
			// admitting a new key, bounding the map without a janitor.
			for k, old := range clients {
				if now.Sub(old.lastSeen) > cfg.Window {
					delete(clients, k)
				}
			}
			c = &client{limiter: rate.NewLimiter(limit, cfg.Max)}
			clients[key] = c
		}
		c.lastSeen = now
		return c.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := get(cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			if !lim.Allow() {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's IP, preferring proxy headers over
// RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
