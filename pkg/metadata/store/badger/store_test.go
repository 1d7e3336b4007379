package badger

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/metadata/storetest"
)

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) metadata.Store {
		store, err := New(Config{InMemory: true})
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")

	store, err := New(Config{Path: dir})
	require.NoError(t, err)

	acc := &metadata.Account{ID: uuid.New(), Email: "a@example.com", PasswordHash: "h", Active: true, StorageLimit: 10}
	require.NoError(t, store.CreateAccount(t.Context(), acc))
	require.NoError(t, store.Close())

	store, err = New(Config{Path: dir})
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetAccountByEmail(t.Context(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, "h", got.PasswordHash)
}

func TestChildIndexFollowsDelete(t *testing.T) {
	store, err := New(Config{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	owner := uuid.New()
	parent := &metadata.Node{ID: uuid.New(), OwnerID: owner, Kind: metadata.KindFolder, Name: "p"}
	child := &metadata.Node{ID: uuid.New(), OwnerID: owner, ParentID: &parent.ID, Kind: metadata.KindFile, Name: "c"}

	require.NoError(t, store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		if err := tx.InsertNode(t.Context(), parent); err != nil {
			return err
		}
		return tx.InsertNode(t.Context(), child)
	}))

	require.NoError(t, store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		if _, err := tx.DeleteNode(t.Context(), owner, child.ID); err != nil {
			return err
		}
		n, err := tx.CountChildren(t.Context(), owner, parent.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))

	// The id is free again after delete.
	require.NoError(t, store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		return tx.InsertNode(t.Context(), child)
	}))
}

func TestSizeReportsDisk(t *testing.T) {
	store, err := New(Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	lsm, vlog := store.Size()
	assert.GreaterOrEqual(t, lsm, int64(0))
	assert.GreaterOrEqual(t, vlog, int64(0))
}
