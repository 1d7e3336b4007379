package storetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAccountTests(t *testing.T, factory StoreFactory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "alice@example.com", 2048)

		got, err := store.GetAccount(t.Context(), acc.ID)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, got.ID)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, acc.PasswordHash, got.PasswordHash)
		assert.True(t, got.Active)
		assert.False(t, got.SuperUser)
		assert.Zero(t, got.StorageUsed)
		assert.EqualValues(t, 2048, got.StorageLimit)
		assert.True(t, acc.CreatedAt.Equal(got.CreatedAt))

		byEmail, err := store.GetAccountByEmail(t.Context(), "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, acc.ID, byEmail.ID)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 10)

		dup := *acc
		dup.Email = "b@example.com"
		requireCode(t, store.CreateAccount(t.Context(), &dup), metadata.ErrAlreadyExists)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 10)

		dup := *acc
		dup.ID = uuid.New()
		requireCode(t, store.CreateAccount(t.Context(), &dup), metadata.ErrAlreadyExists)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := factory(t)

		_, err := store.GetAccount(t.Context(), uuid.New())
		requireCode(t, err, metadata.ErrAccountNotFound)

		_, err = store.GetAccountByEmail(t.Context(), "nobody@example.com")
		requireCode(t, err, metadata.ErrAccountNotFound)
	})

	t.Run("AddStorageUsed", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			if err := tx.AddStorageUsed(t.Context(), acc.ID, 300); err != nil {
				return err
			}
			return tx.AddStorageUsed(t.Context(), acc.ID, -100)
		})
		require.NoError(t, err)

		got, err := store.GetAccount(t.Context(), acc.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 200, got.StorageUsed)
	})

	t.Run("AddStorageUsedUnknownAccount", func(t *testing.T) {
		store := factory(t)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			return tx.AddStorageUsed(t.Context(), uuid.New(), 1)
		})
		requireCode(t, err, metadata.ErrAccountNotFound)
	})

	t.Run("Healthcheck", func(t *testing.T) {
		store := factory(t)
		assert.NoError(t, store.Healthcheck(t.Context()))
	})
}
