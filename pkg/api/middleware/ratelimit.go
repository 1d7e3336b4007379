package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/api/problem"
)

// RateLimitConfig configures the per-owner token bucket.
type RateLimitConfig struct {
	// RequestsPerSecond is the refill rate. Zero disables rate limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`

	// Burst is the bucket capacity. Default: 2x RequestsPerSecond, at least 1.
	Burst int `mapstructure:"burst" yaml:"burst" validate:"gte=0"`

	// MaxOwners bounds the number of tracked buckets. The least recently
	// seen owner loses its bucket first. Default: 10000.
	MaxOwners int `mapstructure:"max_owners" yaml:"max_owners" validate:"gte=0"`
}

// Limiter keeps one token bucket per owner.
type Limiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[uuid.UUID, *rate.Limiter]
	rate    rate.Limit
	burst   int
}

// NewLimiter creates a Limiter. Returns nil when cfg disables limiting.
func NewLimiter(cfg RateLimitConfig) (*Limiter, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(int(math.Ceil(2*cfg.RequestsPerSecond)), 1)
	}
	if cfg.MaxOwners <= 0 {
		cfg.MaxOwners = 10000
	}

	buckets, err := lru.New[uuid.UUID, *rate.Limiter](cfg.MaxOwners)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		buckets: buckets,
		rate:    rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
	}, nil
}

// Allow takes one token from the bucket of owner. When the bucket is empty
// it returns false and the time until the next token.
func (l *Limiter) Allow(owner uuid.UUID, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	b, ok := l.buckets.Get(owner)
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets.Add(owner, b)
	}
	l.mu.Unlock()

	r := b.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// RateLimitRecorder is notified of rejected requests.
type RateLimitRecorder interface {
	RateLimited()
}

// RateLimit rejects requests of owners over their budget with 429 and a
// Retry-After header. Must run after JWTAuth. A nil limiter passes every
// request through.
func RateLimit(l *Limiter, rec RateLimitRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, ok := OwnerFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, retryAfter := l.Allow(owner, time.Now())
			if !allowed {
				if rec != nil {
					rec.RateLimited()
				}
				logger.DebugCtx(r.Context(), "request rate limited", "retry_after", retryAfter.String())
				seconds := max(int(math.Ceil(retryAfter.Seconds())), 1)
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				problem.TooManyRequests(w, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
