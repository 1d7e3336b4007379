// Package middleware provides the HTTP middleware of the servr API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/api/auth"
	"github.com/marmos91/servr/pkg/api/problem"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	ownerContextKey  contextKey = "owner"
)

// GetClaimsFromContext retrieves JWT claims from the request context.
// Returns nil outside routes guarded by JWTAuth.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// OwnerFromContext returns the authenticated owner id.
func OwnerFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ownerContextKey).(uuid.UUID)
	return id, ok
}

// WithOwner returns ctx carrying ownerID as the authenticated owner.
func WithOwner(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

// extractBearerToken extracts the token from a Bearer Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth validates the Bearer access token of every request and stores the
// claims and the owner id in the request context. Missing or invalid tokens
// are answered with 401.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractBearerToken(r)
			if !ok {
				problem.Unauthorized(w, "Authorization header required")
				return
			}

			claims, err := jwtService.ValidateAccessToken(tokenString)
			if err != nil {
				problem.Unauthorized(w, "Invalid or expired token")
				return
			}
			owner, err := claims.OwnerID()
			if err != nil {
				problem.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			ctx = WithOwner(ctx, owner)
			ctx = logger.AnnotateOwner(ctx, owner.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
