package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct{ limited int }

func (c *countingRecorder) RateLimited() { c.limited++ }

func TestNewLimiterDisabled(t *testing.T) {
	l, err := NewLimiter(RateLimitConfig{})
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestLimiterPerOwner(t *testing.T) {
	l, err := NewLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	require.NoError(t, err)

	now := time.Now()
	alice, bob := uuid.New(), uuid.New()

	ok, _ := l.Allow(alice, now)
	assert.True(t, ok)
	ok, _ = l.Allow(alice, now)
	assert.True(t, ok)
	ok, retry := l.Allow(alice, now)
	assert.False(t, ok)
	assert.Positive(t, retry)

	ok, _ = l.Allow(bob, now)
	assert.True(t, ok)

	ok, _ = l.Allow(alice, now.Add(time.Second))
	assert.True(t, ok)
}

func TestLimiterBoundsOwners(t *testing.T) {
	l, err := NewLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, MaxOwners: 2})
	require.NoError(t, err)

	now := time.Now()
	for range 5 {
		l.Allow(uuid.New(), now)
	}
	assert.Equal(t, 2, l.buckets.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	l, err := NewLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	require.NoError(t, err)
	rec := &countingRecorder{}

	handler := RateLimit(l, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	owner := uuid.New()
	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithOwner(req.Context(), owner))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusNoContent, call().Code)

	limited := call()
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, 1, rec.limited)

	anonymous := httptest.NewRecorder()
	handler.ServeHTTP(anonymous, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, anonymous.Code)
}

func TestRateLimitNilLimiter(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RateLimit(nil, nil)(next)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
