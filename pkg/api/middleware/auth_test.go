package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/api/auth"
	"github.com/marmos91/servr/pkg/metadata"
)

func createTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret: "test-secret-key-that-is-at-least-32-characters-long",
		Issuer: "test",
	})
	require.NoError(t, err)
	return svc
}

func TestGetClaimsFromContext(t *testing.T) {
	assert.Nil(t, GetClaimsFromContext(context.Background()))

	expected := &auth.Claims{Email: "a@example.com"}
	ctx := context.WithValue(context.Background(), claimsContextKey, expected)
	assert.Same(t, expected, GetClaimsFromContext(ctx))

	ctx = context.WithValue(context.Background(), claimsContextKey, "not-claims")
	assert.Nil(t, GetClaimsFromContext(ctx))
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		wantToken   string
		wantSuccess bool
	}{
		{"empty header", "", "", false},
		{"bearer token", "Bearer abc123", "abc123", true},
		{"bearer lowercase", "bearer abc123", "abc123", true},
		{"BEARER uppercase", "BEARER abc123", "abc123", true},
		{"missing token", "Bearer", "", false},
		{"empty token", "Bearer ", "", false},
		{"wrong scheme", "Basic abc123", "", false},
		{"no space", "Bearerabc123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			token, ok := extractBearerToken(req)
			assert.Equal(t, tt.wantSuccess, ok)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestJWTAuth(t *testing.T) {
	jwtService := createTestJWTService(t)
	account := &metadata.Account{ID: uuid.New(), Email: "a@example.com"}
	tokens, err := jwtService.GenerateTokenPair(account)
	require.NoError(t, err)

	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	})

	for name, header := range map[string]string{
		"missing header": "",
		"invalid token":  "Bearer invalid",
		"refresh token":  "Bearer " + tokens.RefreshToken,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			JWTAuth(jwtService)(reject).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	t.Run("valid access token", func(t *testing.T) {
		var called bool
		handler := JWTAuth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			owner, ok := OwnerFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, account.ID, owner)
			assert.Equal(t, "a@example.com", GetClaimsFromContext(r.Context()).Email)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
