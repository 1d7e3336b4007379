package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/metadata/store/memory"
	"github.com/marmos91/servr/pkg/metadata/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) metadata.Store {
		return memory.New()
	})
}

func TestCommitHookAbortsCommit(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	owner := uuid.New()
	require.NoError(t, store.CreateAccount(ctx, &metadata.Account{ID: owner, Email: "o@example.com", StorageLimit: 10}))

	commitErr := errors.New("commit failed")
	store.SetCommitHook(func() error { return commitErr })

	err := store.WithTransaction(ctx, func(tx metadata.Transaction) error {
		return tx.AddStorageUsed(ctx, owner, 5)
	})
	require.ErrorIs(t, err, commitErr)

	acc, err := store.GetAccount(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, acc.StorageUsed)

	store.SetCommitHook(nil)
	require.NoError(t, store.WithTransaction(ctx, func(tx metadata.Transaction) error {
		return tx.AddStorageUsed(ctx, owner, 5)
	}))
}

func TestClosed(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Healthcheck(context.Background()), memory.ErrClosed)
	_, err := store.ListNodes(context.Background(), uuid.New())
	assert.ErrorIs(t, err, memory.ErrClosed)
}

func TestCancelledContext(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.WithTransaction(ctx, func(metadata.Transaction) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
