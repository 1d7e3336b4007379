// Package auth issues and validates the JWT bearer tokens of the API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType indicates whether a token is an access token or refresh token.
type TokenType string

const (
	// TokenTypeAccess is a short-lived token used for API authorization.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is a long-lived token used to obtain new access tokens.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims of an authenticated owner. The subject is the
// owner id.
type Claims struct {
	jwt.RegisteredClaims

	// Email is the account email at issue time.
	Email string `json:"email"`

	// SuperUser marks administrator accounts.
	SuperUser bool `json:"super_user,omitempty"`

	TokenType TokenType `json:"token_type"`
}

// OwnerID parses the subject.
func (c *Claims) OwnerID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IsAccessToken returns true if this is an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken returns true if this is a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}
