package storetest

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTransactionTests(t *testing.T, factory StoreFactory) {
	t.Run("RollbackOnError", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		folder := newFolder(acc.ID, nil, "f", baseTime())
		insert(t, store, folder)

		boom := errors.New("boom")
		file := newFile(acc.ID, idPtr(folder.ID), "x", "bin", 10, baseTime())
		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			if err := tx.InsertNode(t.Context(), file); err != nil {
				return err
			}
			if err := tx.AddNodeSize(t.Context(), acc.ID, []uuid.UUID{folder.ID}, 10); err != nil {
				return err
			}
			if err := tx.AddStorageUsed(t.Context(), acc.ID, 10); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = store.GetNode(t.Context(), acc.ID, file.ID)
		requireCode(t, err, metadata.ErrNodeNotFound)

		f, err := store.GetNode(t.Context(), acc.ID, folder.ID)
		require.NoError(t, err)
		assert.Zero(t, f.Size)

		a, err := store.GetAccount(t.Context(), acc.ID)
		require.NoError(t, err)
		assert.Zero(t, a.StorageUsed)
	})

	t.Run("ReadYourWrites", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		file := newFile(acc.ID, nil, "x", "bin", 10, baseTime())

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			if err := tx.InsertNode(t.Context(), file); err != nil {
				return err
			}
			if err := tx.AddStorageUsed(t.Context(), acc.ID, 10); err != nil {
				return err
			}

			got, err := tx.GetNode(t.Context(), acc.ID, file.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, file.ID, got.ID)

			a, err := tx.GetAccount(t.Context(), acc.ID)
			if err != nil {
				return err
			}
			assert.EqualValues(t, 10, a.StorageUsed)

			nodes, err := tx.ListNodes(t.Context(), acc.ID)
			if err != nil {
				return err
			}
			assert.Len(t, nodes, 1)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("DeleteReturnsNode", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		folder := newFolder(acc.ID, nil, "f", baseTime())
		file := newFile(acc.ID, idPtr(folder.ID), "x", "bin", 10, baseTime())
		insert(t, store, folder, file)

		var deleted *metadata.Node
		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			var err error
			deleted, err = tx.DeleteNode(t.Context(), acc.ID, file.ID)
			return err
		})
		require.NoError(t, err)
		require.NotNil(t, deleted)
		assert.Equal(t, file.ID, deleted.ID)
		assert.EqualValues(t, 10, deleted.Size)
		assert.Equal(t, "bin", deleted.Extension)
		require.NotNil(t, deleted.ParentID)
		assert.Equal(t, folder.ID, *deleted.ParentID)

		_, err = store.GetNode(t.Context(), acc.ID, file.ID)
		requireCode(t, err, metadata.ErrNodeNotFound)
	})

	t.Run("DeleteRejectsFolderWithChildren", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		folder := newFolder(acc.ID, nil, "f", baseTime())
		file := newFile(acc.ID, idPtr(folder.ID), "x", "bin", 10, baseTime())
		insert(t, store, folder, file)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			_, err := tx.DeleteNode(t.Context(), acc.ID, folder.ID)
			return err
		})
		requireCode(t, err, metadata.ErrConflict)

		_, err = store.GetNode(t.Context(), acc.ID, folder.ID)
		require.NoError(t, err)

		err = store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			if _, err := tx.DeleteNode(t.Context(), acc.ID, file.ID); err != nil {
				return err
			}
			_, err := tx.DeleteNode(t.Context(), acc.ID, folder.ID)
			return err
		})
		require.NoError(t, err)
	})

	t.Run("InsertUnderMissingParent", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		file := newFile(acc.ID, idPtr(uuid.New()), "x", "bin", 10, baseTime())

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			return tx.InsertNode(t.Context(), file)
		})
		requireCode(t, err, metadata.ErrConflict)
	})

	t.Run("DeleteScopedByOwner", func(t *testing.T) {
		store := factory(t)
		alice := newAccount(t, store, "alice@example.com", 1000)
		bob := newAccount(t, store, "bob@example.com", 1000)
		file := newFile(alice.ID, nil, "x", "bin", 10, baseTime())
		insert(t, store, file)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			_, err := tx.DeleteNode(t.Context(), bob.ID, file.ID)
			return err
		})
		requireCode(t, err, metadata.ErrNodeNotFound)

		_, err = store.GetNode(t.Context(), alice.ID, file.ID)
		require.NoError(t, err)
	})

	t.Run("CountChildren", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		parent := newFolder(acc.ID, nil, "p", baseTime())
		child := newFolder(acc.ID, idPtr(parent.ID), "c", baseTime())
		grandchild := newFile(acc.ID, idPtr(child.ID), "g", "", 1, baseTime())
		sibling := newFile(acc.ID, idPtr(parent.ID), "s", "", 1, baseTime())
		insert(t, store, parent, child, grandchild, sibling)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			n, err := tx.CountChildren(t.Context(), acc.ID, parent.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = tx.CountChildren(t.Context(), acc.ID, grandchild.ID)
			require.NoError(t, err)
			assert.Zero(t, n)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("Ancestors", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		a := newFolder(acc.ID, nil, "a", baseTime())
		b := newFolder(acc.ID, idPtr(a.ID), "b", baseTime())
		c := newFolder(acc.ID, idPtr(b.ID), "c", baseTime())
		insert(t, store, a, b, c)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			chain, err := tx.Ancestors(t.Context(), acc.ID, c.ID, metadata.DefaultMaxDepth)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{c.ID, b.ID, a.ID}, chain)

			chain, err = tx.Ancestors(t.Context(), acc.ID, a.ID, metadata.DefaultMaxDepth)
			require.NoError(t, err)
			assert.Equal(t, []uuid.UUID{a.ID}, chain)

			_, err = tx.Ancestors(t.Context(), acc.ID, c.ID, 2)
			requireCode(t, err, metadata.ErrBackend)

			chain, err = tx.Ancestors(t.Context(), acc.ID, c.ID, 3)
			require.NoError(t, err)
			assert.Len(t, chain, 3)

			_, err = tx.Ancestors(t.Context(), acc.ID, uuid.New(), metadata.DefaultMaxDepth)
			requireCode(t, err, metadata.ErrNodeNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("AddNodeSize", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		a := newFolder(acc.ID, nil, "a", baseTime())
		b := newFolder(acc.ID, idPtr(a.ID), "b", baseTime())
		sibling := newFolder(acc.ID, idPtr(a.ID), "s", baseTime())
		insert(t, store, a, b, sibling)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			if err := tx.AddNodeSize(t.Context(), acc.ID, []uuid.UUID{b.ID, a.ID}, 25); err != nil {
				return err
			}
			return tx.AddNodeSize(t.Context(), acc.ID, []uuid.UUID{b.ID, a.ID}, -5)
		})
		require.NoError(t, err)

		for id, want := range map[uuid.UUID]int64{a.ID: 20, b.ID: 20, sibling.ID: 0} {
			n, err := store.GetNode(t.Context(), acc.ID, id)
			require.NoError(t, err)
			assert.Equal(t, want, n.Size, n.Name)
		}
	})

	t.Run("PropagateAndReserve", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 100)
		root := newFolder(acc.ID, nil, "root", baseTime())
		nested := newFolder(acc.ID, idPtr(root.ID), "nested", baseTime())
		insert(t, store, root, nested)

		file := newFile(acc.ID, idPtr(nested.ID), "f", "bin", 100, baseTime())
		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			if _, err := metadata.Reserve(t.Context(), tx, acc.ID, file.Size); err != nil {
				return err
			}
			if err := tx.InsertNode(t.Context(), file); err != nil {
				return err
			}
			if err := metadata.Propagate(t.Context(), tx, file, file.Size, metadata.DefaultMaxDepth); err != nil {
				return err
			}
			return tx.AddStorageUsed(t.Context(), acc.ID, file.Size)
		})
		require.NoError(t, err)

		_, err = metadata.Reserve(t.Context(), store, acc.ID, 1)
		requireCode(t, err, metadata.ErrQuotaExceeded)

		for _, id := range []uuid.UUID{root.ID, nested.ID} {
			n, err := store.GetNode(t.Context(), acc.ID, id)
			require.NoError(t, err)
			assert.EqualValues(t, 100, n.Size)
		}
	})
}
