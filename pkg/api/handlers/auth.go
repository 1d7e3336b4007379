package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/accounts"
	"github.com/marmos91/servr/pkg/api/auth"
	"github.com/marmos91/servr/pkg/api/problem"
	"github.com/marmos91/servr/pkg/metadata"
)

// AccountService is the part of accounts.Service the auth endpoints use.
type AccountService interface {
	SignUp(ctx context.Context, req accounts.SignUpRequest) (*metadata.Account, error)
	SignIn(ctx context.Context, email, password string) (*metadata.Account, error)
	Get(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error)
}

// AuthHandler handles account and token endpoints.
type AuthHandler struct {
	accounts   AccountService
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts AccountService, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwtService: jwtService}
}

// SignUpRequest is the request body for POST /api/v1/auth/sign-up.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInRequest is the request body for POST /api/v1/auth/sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Active       bool      `json:"active"`
	SuperUser    bool      `json:"super_user"`
	StorageUsed  int64     `json:"storage_used"`
	StorageLimit int64     `json:"storage_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

// TokenResponse is returned by sign-in and refresh.
type TokenResponse struct {
	*auth.TokenPair
	Account AccountResponse `json:"account"`
}

func accountToResponse(a *metadata.Account) AccountResponse {
	return AccountResponse{
		ID:           a.ID.String(),
		Email:        a.Email,
		Active:       a.Active,
		SuperUser:    a.SuperUser,
		StorageUsed:  a.StorageUsed,
		StorageLimit: a.StorageLimit,
		CreatedAt:    a.CreatedAt,
	}
}

// SignUp handles POST /api/v1/auth/sign-up.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	account, err := h.accounts.SignUp(r.Context(), accounts.SignUpRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	WriteJSONCreated(w, accountToResponse(account))
}

// SignIn handles POST /api/v1/auth/sign-in.
// Verifies the credentials and returns a JWT token pair.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	account, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		problem.Error(w, r, err)
		return
	}

	h.writeTokens(w, r, account)
}

// Refresh handles POST /api/v1/auth/refresh.
// Returns a new token pair using a valid refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			problem.Unauthorized(w, "Refresh token has expired")
			return
		}
		problem.Unauthorized(w, "Invalid refresh token")
		return
	}

	ownerID, err := claims.OwnerID()
	if err != nil {
		problem.Unauthorized(w, "Invalid refresh token")
		return
	}

	// Re-read the account so a deactivated owner cannot keep refreshing.
	account, err := h.accounts.Get(r.Context(), ownerID)
	if err != nil {
		if metadata.CodeOf(err) == metadata.ErrAccountNotFound {
			problem.Unauthorized(w, "Invalid refresh token")
			return
		}
		problem.Error(w, r, err)
		return
	}
	if !account.Active {
		problem.Unauthorized(w, "Account is disabled")
		return
	}

	h.writeTokens(w, r, account)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), owner)
	if err != nil {
		problem.Error(w, r, err)
		return
	}
	WriteJSONOK(w, accountToResponse(account))
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, r *http.Request, account *metadata.Account) {
	pair, err := h.jwtService.GenerateTokenPair(account)
	if err != nil {
		logger.ErrorCtx(r.Context(), "token generation failed", logger.Err(err))
		problem.InternalServerError(w, "Failed to generate token")
		return
	}

	WriteJSONOK(w, TokenResponse{TokenPair: pair, Account: accountToResponse(account)})
}
