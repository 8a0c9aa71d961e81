package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/slogx"
)

// RateLimitConfig defines a token bucket per key.
type RateLimitConfig struct {
	// RequestsPerWindow is the sustained number of requests per Window
	RequestsPerWindow int
	Window            time.Duration
	// Burst is how many requests may arrive at once
	Burst int
}

// Enabled reports whether the config describes a usable limit.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0 && c.Burst > 0
}

var (
	// LoginLimit guards /login and /callback. Each /login mints a fresh
	// anti-replay state and each /callback spends a code at the token
	// endpoint, so a runaway tab must not hammer the identity provider.
	LoginLimit = RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		Burst:             5,
	}

	// ProbeLimit guards the health probes.
	ProbeLimit = RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		Burst:             30,
	}
)

// ParseRateLimitFromEnv overlays LEAVEHUB_RATELIMIT_{name}_REQUESTS,
// _WINDOW_SEC and _BURST on def. Unparseable or non-positive values are
// ignored.
func ParseRateLimitFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	cfg := def
	prefix := "LEAVEHUB_RATELIMIT_" + strings.ToUpper(name) + "_"

	if n, ok := positiveEnvInt(prefix + "REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt(prefix + "WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt(prefix + "BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor groups requests for rate limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the peer address. Forwarding headers are ignored:
// the agent listens on loopback and nothing sits in front of it.
func IPKeyExtractor(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// RouteKeyExtractor keys on peer address and path, so /login and
// /callback draw from separate buckets.
func RouteKeyExtractor(r *http.Request) string {
	ip := IPKeyExtractor(r)
	if ip == "" {
		return ""
	}
	return ip + ":" + r.URL.Path
}

type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full buckets) at most every 5 minutes.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware limits requests per key. A disabled config, or a
// request the extractor cannot key, passes through.
func RateLimitMiddleware(cfg RateLimitConfig, keyFn KeyExtractor) Middleware {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}

	rl := &rateLimiter{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyFn(r)
			if key == "" {
				log.Warn("rate limit: no key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.getLimiter(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			log.Warn("rate limit exceeded", "key", key, "retry_after", retryAfter)

			WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "Too many requests. Please try again later.",
			})
		})
	}
}

// RateLimitByIP limits by peer address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByRoute limits by peer address and path.
func RateLimitByRoute(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, RouteKeyExtractor)
}
