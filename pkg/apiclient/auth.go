package apiclient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Credentials is the body of sign-up and sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account is the public view of an account.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Active       bool      `json:"active"`
	SuperUser    bool      `json:"super_user"`
	StorageUsed  int64     `json:"storage_used"`
	StorageLimit int64     `json:"storage_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenResponse is returned by sign-in and refresh.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	ExpiresAt    time.Time `json:"expires_at"`
	Account      Account   `json:"account"`
}

// ExpiresInDuration returns ExpiresIn as a time.Duration.
func (t *TokenResponse) ExpiresInDuration() time.Duration {
	return time.Duration(t.ExpiresIn) * time.Second
}

// SignUp creates an account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Account, error) {
	var acc Account
	if err := c.post(ctx, "/api/v1/auth/sign-up", Credentials{Email: email, Password: password}, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// SignIn authenticates and returns tokens. The client does not keep them;
// call SetToken or WithToken with AccessToken.
func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/api/v1/auth/sign-in", Credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	req := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var resp TokenResponse
	if err := c.post(ctx, "/api/v1/auth/refresh", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the account of the current token.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	var acc Account
	if err := c.get(ctx, "/api/v1/auth/me", &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}
