package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/accounts"
	"github.com/marmos91/servr/pkg/api/auth"
	"github.com/marmos91/servr/pkg/api/handlers"
	"github.com/marmos91/servr/pkg/api/middleware"
	"github.com/marmos91/servr/pkg/blob/memory"
	memstore "github.com/marmos91/servr/pkg/metadata/store/memory"
	"github.com/marmos91/servr/pkg/storage"
	"github.com/marmos91/servr/pkg/urlcache"
)

type recordingMetrics struct {
	mu          sync.Mutex
	started     int
	routes      map[string]int
	rateLimited int
}

func (m *recordingMetrics) RequestStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMetrics) ObserveRequest(method, route string, code int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method+" "+route]++
}

func (m *recordingMetrics) RateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

func newTestRouter(t *testing.T, cfg APIConfig, checks map[string]handlers.Checker) (http.Handler, *recordingMetrics) {
	t.Helper()

	store := memstore.New()
	blobs := memory.New()
	cache, err := urlcache.New(urlcache.Config{}, nil)
	require.NoError(t, err)

	svc := storage.New(store, blobs, cache, storage.Config{})
	accts := accounts.New(store, svc, accounts.Config{BcryptCost: 4})
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-key-that-is-at-least-32-characters-long"})
	require.NoError(t, err)

	rec := &recordingMetrics{routes: make(map[string]int)}
	router, err := NewRouter(cfg, Dependencies{
		Accounts: accts,
		Storage:  svc,
		JWT:      jwtService,
		Checks:   checks,
		Metrics:  rec,
	})
	require.NoError(t, err)
	return router, rec
}

func serve(router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signIn(t *testing.T, router http.Handler) string {
	t.Helper()
	creds := map[string]string{"email": "u@example.com", "password": "password123"}

	rec := serve(router, http.MethodPost, "/api/v1/auth/sign-up", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/v1/auth/sign-in", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens handlers.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokens))
	return tokens.AccessToken
}

func TestRouterFlow(t *testing.T) {
	router, metrics := newTestRouter(t, APIConfig{}, nil)
	token := signIn(t, router)

	rec := serve(router, http.MethodGet, "/api/v1/nodes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/folders", token, map[string]string{"name": "docs"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/v1/nodes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing handlers.ListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listing))
	require.Len(t, listing.Nodes, 1)
	assert.Equal(t, "docs", listing.Nodes[0].Name)

	rec = serve(router, http.MethodGet, "/api/v1/quota", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 2, metrics.routes["GET /api/v1/nodes"])
	assert.Equal(t, 1, metrics.routes["POST /api/v1/auth/sign-in"])
}

func TestRouterRateLimit(t *testing.T) {
	cfg := APIConfig{RateLimit: middleware.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}}
	router, metrics := newTestRouter(t, cfg, nil)
	token := signIn(t, router)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/quota", token, nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/quota", token, nil).Code)

	rec := serve(router, http.MethodGet, "/api/v1/quota", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Public routes are not limited.
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "", nil).Code)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.rateLimited)
}

func TestRouterHealth(t *testing.T) {
	healthy := handlers.CheckerFunc(func(context.Context) error { return nil })
	broken := handlers.CheckerFunc(func(context.Context) error { return errors.New("unreachable") })

	router, _ := newTestRouter(t, APIConfig{}, map[string]handlers.Checker{"node_store": healthy})
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/ready", "", nil).Code)

	router, _ = newTestRouter(t, APIConfig{}, map[string]handlers.Checker{"node_store": healthy, "blob_store": broken})
	rec := serve(router, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp handlers.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp.Status)
}

func TestServerStartStop(t *testing.T) {
	store := memstore.New()
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-key-that-is-at-least-32-characters-long"})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	srv, err := NewServer(APIConfig{Port: port}, Dependencies{
		Accounts: accounts.New(store, nil, accounts.Config{}),
		JWT:      jwtService,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer addrCancel()
	addr, err := srv.Addr(addrCtx)
	require.NoError(t, err)
	assert.Equal(t, port, addr.(*net.TCPAddr).Port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", port))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
