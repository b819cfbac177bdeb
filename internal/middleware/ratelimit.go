package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig describes a per-client token bucket. Each client may
// spend Burst requests at once and earns Rate requests back per second.
type RateLimiterConfig struct {
	Rate  float64
	Burst int

	// IdleTTL is how long a client may go unseen before its bucket is
	// evicted. It also sets the sweep period.
	IdleTTL time.Duration

	// Key identifies the client. Defaults to GetClientIP.
	Key func(r *http.Request) string
}

// DefaultRateLimiterConfig is the limit applied to the whole API.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{Rate: 10, Burst: 20, IdleTTL: time.Minute, Key: GetClientIP}
}

// StrictRateLimiterConfig is for the auth endpoints, where each request
// may run a bcrypt comparison.
func StrictRateLimiterConfig(rate float64) RateLimiterConfig {
	return RateLimiterConfig{Rate: rate, Burst: 5, IdleTTL: time.Minute, Key: GetClientIP}
}

// Decision is the outcome of taking a token from a client's bucket.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is zero when Allowed, otherwise the wait until one whole
	// token is available again.
	RetryAfter time.Duration
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter keeps one bucket per client key in memory.
type RateLimiter struct {
	cfg RateLimiterConfig
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a limiter along with its eviction sweep. Call Stop
// to end the sweep.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := newRateLimiter(cfg, time.Now)
	go rl.sweepLoop()
	return rl
}

func newRateLimiter(cfg RateLimiterConfig, now func() time.Time) *RateLimiter {
	if cfg.Key == nil {
		cfg.Key = GetClientIP
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		now:     now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
}

// Take spends one token for key if there is one.
func (rl *RateLimiter) Take(key string) Decision {
	now := rl.now()
	burst := float64(rl.cfg.Burst)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: burst, lastSeen: now}
		rl.buckets[key] = b
	}
	if elapsed := now.Sub(b.lastSeen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(burst, b.tokens+elapsed*rl.cfg.Rate)
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return Decision{Allowed: true, Remaining: int(b.tokens)}
	}

	d := Decision{RetryAfter: time.Hour}
	if rl.cfg.Rate > 0 {
		d.RetryAfter = time.Duration((1 - b.tokens) / rl.cfg.Rate * float64(time.Second))
	}
	return d
}

// Allow reports whether key may make a request now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.Take(key).Allowed
}

// sweep evicts buckets idle for longer than IdleTTL. A bucket idle that
// long has refilled, so forgetting it changes no future decision as long
// as IdleTTL*Rate >= Burst.
func (rl *RateLimiter) sweep() int {
	cutoff := rl.now().Add(-rl.cfg.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
			evicted++
		}
	}
	return evicted
}

func (rl *RateLimiter) sweepLoop() {
	t := time.NewTicker(rl.cfg.IdleTTL)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// Stop ends the eviction sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// Middleware limits every request passing through it and reports the
// bucket state in X-RateLimit-* headers.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	limit := strconv.Itoa(rl.cfg.Burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := rl.Take(rl.cfg.Key(r))

		h := w.Header()
		h.Set("X-RateLimit-Limit", limit)
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
			respondTooManyRequests(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MiddlewareFor limits only requests whose path starts with prefix.
func (rl *RateLimiter) MiddlewareFor(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := rl.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds rounds up, with a floor of one second, since the
// header has whole-second resolution.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// GetClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// the host part of RemoteAddr. The server is expected to sit behind a
// proxy that overwrites these headers.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
