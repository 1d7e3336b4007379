package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/metadata"
)

const testSecret = "test-secret-key-must-be-32-chars!"

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "test"})
	require.NoError(t, err)
	return svc
}

func testAccount() *metadata.Account {
	return &metadata.Account{ID: uuid.New(), Email: "a@example.com"}
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)

	_, err = NewJWTService(JWTConfig{})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestDefaults(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, svc.AccessTokenDuration())
	assert.Equal(t, "servr", svc.config.Issuer)
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService(t)
	account := testAccount()

	pair, err := svc.GenerateTokenPair(account)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.EqualValues(t, 30*60, pair.ExpiresIn)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	owner, err := claims.OwnerID()
	require.NoError(t, err)
	assert.Equal(t, account.ID, owner)
	assert.Equal(t, "a@example.com", claims.Email)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService(t)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokenPair(testAccount())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestForeignTokens(t *testing.T) {
	svc := newTestService(t)

	other, err := NewJWTService(JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "test"})
	require.NoError(t, err)
	pair, err := other.GenerateTokenPair(testAccount())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "elsewhere"})
	require.NoError(t, err)
	pair, err = otherIssuer.GenerateTokenPair(testAccount())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
