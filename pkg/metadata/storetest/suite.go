// Package storetest is a conformance suite for metadata.Store
// implementations. Each store package runs it from its own tests:
//
//	storetest.RunConformanceSuite(t, func(t *testing.T) metadata.Store {
//	    return memory.New()
//	})
package storetest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/stretchr/testify/require"
)

// StoreFactory creates a fresh, empty Store for each test. It can use
// t.TempDir() for on-disk stores and t.Cleanup() for teardown.
type StoreFactory func(t *testing.T) metadata.Store

// RunConformanceSuite runs every conformance test against factory.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("Accounts", func(t *testing.T) {
		runAccountTests(t, factory)
	})

	t.Run("Nodes", func(t *testing.T) {
		runNodeTests(t, factory)
	})

	t.Run("Transactions", func(t *testing.T) {
		runTransactionTests(t, factory)
	})

	t.Run("Accounting", func(t *testing.T) {
		runAccountingTests(t, factory)
	})
}

// baseTime is truncated to whole seconds so every backend round-trips it
// exactly.
func baseTime() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func newAccount(t *testing.T, store metadata.Store, email string, limit int64) *metadata.Account {
	t.Helper()

	account := &metadata.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Active:       true,
		StorageLimit: limit,
		CreatedAt:    baseTime(),
	}
	require.NoError(t, store.CreateAccount(t.Context(), account))
	return account
}

func newFolder(owner uuid.UUID, parent *uuid.UUID, name string, created time.Time) *metadata.Node {
	return &metadata.Node{
		ID:           uuid.New(),
		OwnerID:      owner,
		ParentID:     parent,
		Name:         name,
		Kind:         metadata.KindFolder,
		FileType:     metadata.FileTypeFolder,
		CreatedAt:    created,
		LastModified: created,
		SharedWith:   []uuid.UUID{},
	}
}

func newFile(owner uuid.UUID, parent *uuid.UUID, name, ext string, size int64, created time.Time) *metadata.Node {
	return &metadata.Node{
		ID:           uuid.New(),
		OwnerID:      owner,
		ParentID:     parent,
		Name:         name,
		Kind:         metadata.KindFile,
		FileType:     metadata.FileTypeOther,
		Extension:    ext,
		Size:         size,
		CreatedAt:    created,
		LastModified: created,
		SharedWith:   []uuid.UUID{},
	}
}

// insert stores nodes in one committed transaction.
func insert(t *testing.T, store metadata.Store, nodes ...*metadata.Node) {
	t.Helper()

	err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		for _, n := range nodes {
			if err := tx.InsertNode(t.Context(), n); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func requireCode(t *testing.T, err error, code metadata.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, metadata.CodeOf(err), "unexpected error: %v", err)
}
