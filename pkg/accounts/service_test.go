package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/metadata/store/memory"
)

type fakeProvisioner struct {
	owners []uuid.UUID
	err    error
}

func (p *fakeProvisioner) ProvisionContainer(_ context.Context, ownerID uuid.UUID) (string, error) {
	p.owners = append(p.owners, ownerID)
	if p.err != nil {
		return "", p.err
	}
	return "servr-" + ownerID.String(), nil
}

func newService(t *testing.T, p Provisioner) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store, p, Config{BcryptCost: 4, DefaultStorageLimit: 10 * bytesize.MiB}), store
}

func requireCode(t *testing.T, err error, code metadata.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, metadata.CodeOf(err), "unexpected error: %v", err)
}

func TestSignUp(t *testing.T) {
	p := &fakeProvisioner{}
	svc, store := newService(t, p)

	account, err := svc.SignUp(t.Context(), SignUpRequest{Email: " alice@example.com ", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", account.Email)
	assert.True(t, account.Active)
	assert.EqualValues(t, 10*bytesize.MiB, account.StorageLimit)
	assert.Zero(t, account.StorageUsed)
	assert.Equal(t, []uuid.UUID{account.ID}, p.owners)

	stored, err := store.GetAccountByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.ID)
	assert.True(t, VerifyPassword("password123", stored.PasswordHash))
}

func TestSignUpCustomLimit(t *testing.T) {
	svc, _ := newService(t, nil)

	account, err := svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "password123", StorageLimit: 42})
	require.NoError(t, err)
	assert.EqualValues(t, 42, account.StorageLimit)
}

func TestSignUpRejects(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.SignUp(t.Context(), SignUpRequest{Email: "not-an-email", Password: "password123"})
	requireCode(t, err, metadata.ErrValidation)

	_, err = svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "short"})
	requireCode(t, err, metadata.ErrValidation)

	_, err = svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "password456"})
	requireCode(t, err, metadata.ErrAlreadyExists)
}

func TestSignUpSurvivesProvisioningFailure(t *testing.T) {
	p := &fakeProvisioner{err: errors.New("s3 down")}
	svc, store := newService(t, p)

	account, err := svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Len(t, p.owners, 1)

	_, err = store.GetAccount(t.Context(), account.ID)
	require.NoError(t, err)
}

func TestSignIn(t *testing.T) {
	svc, _ := newService(t, nil)
	created, err := svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	account, err := svc.SignIn(t.Context(), "a@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)

	_, err = svc.SignIn(t.Context(), "a@example.com", "password124")
	requireCode(t, err, metadata.ErrUnauthorized)

	_, err = svc.SignIn(t.Context(), "b@example.com", "password123")
	requireCode(t, err, metadata.ErrUnauthorized)
}

func TestSignInInactive(t *testing.T) {
	svc, store := newService(t, nil)
	hash, err := HashPassword("password123", 4)
	require.NoError(t, err)
	require.NoError(t, store.CreateAccount(t.Context(), &metadata.Account{
		ID:           uuid.New(),
		Email:        "off@example.com",
		PasswordHash: hash,
		Active:       false,
	}))

	_, err = svc.SignIn(t.Context(), "off@example.com", "password123")
	requireCode(t, err, metadata.ErrUnauthorized)
}

func TestGet(t *testing.T) {
	svc, _ := newService(t, nil)
	created, err := svc.SignUp(t.Context(), SignUpRequest{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)

	got, err := svc.Get(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	_, err = svc.Get(t.Context(), uuid.New())
	requireCode(t, err, metadata.ErrAccountNotFound)
}
