package storetest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNodeTests(t *testing.T, factory StoreFactory) {
	t.Run("InsertAndGet", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		now := baseTime()

		folder := newFolder(acc.ID, nil, "docs", now)
		file := newFile(acc.ID, idPtr(folder.ID), "report", "pdf", 42, now)
		file.FileType = metadata.FileTypeDocument
		file.SharedWith = []uuid.UUID{uuid.New()}
		insert(t, store, folder, file)

		got, err := store.GetNode(t.Context(), acc.ID, file.ID)
		require.NoError(t, err)
		assert.Equal(t, file.ID, got.ID)
		assert.Equal(t, acc.ID, got.OwnerID)
		require.NotNil(t, got.ParentID)
		assert.Equal(t, folder.ID, *got.ParentID)
		assert.Equal(t, "report", got.Name)
		assert.Equal(t, metadata.KindFile, got.Kind)
		assert.Equal(t, metadata.FileTypeDocument, got.FileType)
		assert.Equal(t, "pdf", got.Extension)
		assert.EqualValues(t, 42, got.Size)
		assert.Empty(t, got.URL)
		assert.True(t, now.Equal(got.CreatedAt))
		assert.True(t, now.Equal(got.LastModified))
		assert.Equal(t, file.SharedWith, got.SharedWith)

		root, err := store.GetNode(t.Context(), acc.ID, folder.ID)
		require.NoError(t, err)
		assert.Nil(t, root.ParentID)
		assert.True(t, root.IsFolder())
		assert.Empty(t, root.Extension)
	})

	t.Run("GetScopedByOwner", func(t *testing.T) {
		store := factory(t)
		alice := newAccount(t, store, "alice@example.com", 1000)
		bob := newAccount(t, store, "bob@example.com", 1000)

		file := newFile(alice.ID, nil, "a", "txt", 1, baseTime())
		insert(t, store, file)

		_, err := store.GetNode(t.Context(), bob.ID, file.ID)
		requireCode(t, err, metadata.ErrNodeNotFound)

		_, err = store.GetNode(t.Context(), alice.ID, uuid.New())
		requireCode(t, err, metadata.ErrNodeNotFound)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		file := newFile(acc.ID, nil, "a", "txt", 1, baseTime())
		insert(t, store, file)

		err := store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
			return tx.InsertNode(t.Context(), file)
		})
		requireCode(t, err, metadata.ErrAlreadyExists)
	})

	t.Run("ListOrdered", func(t *testing.T) {
		store := factory(t)
		alice := newAccount(t, store, "alice@example.com", 1000)
		bob := newAccount(t, store, "bob@example.com", 1000)
		now := baseTime()

		third := newFile(alice.ID, nil, "third", "", 1, now.Add(2*time.Second))
		first := newFolder(alice.ID, nil, "first", now)
		second := newFile(alice.ID, idPtr(first.ID), "second", "md", 1, now.Add(time.Second))
		other := newFile(bob.ID, nil, "other", "", 1, now)
		insert(t, store, third, first, second, other)

		nodes, err := store.ListNodes(t.Context(), alice.ID)
		require.NoError(t, err)
		require.Len(t, nodes, 3)
		assert.Equal(t, "first", nodes[0].Name)
		assert.Equal(t, "second", nodes[1].Name)
		assert.Equal(t, "third", nodes[2].Name)

		empty, err := store.ListNodes(t.Context(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Rename", func(t *testing.T) {
		store := factory(t)
		alice := newAccount(t, store, "alice@example.com", 1000)
		bob := newAccount(t, store, "bob@example.com", 1000)
		file := newFile(alice.ID, nil, "old", "txt", 1, baseTime())
		insert(t, store, file)

		later := baseTime().Add(time.Minute)
		require.NoError(t, store.RenameNode(t.Context(), alice.ID, file.ID, "new", later))

		got, err := store.GetNode(t.Context(), alice.ID, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", got.Name)
		assert.True(t, later.Equal(got.LastModified))

		err = store.RenameNode(t.Context(), bob.ID, file.ID, "stolen", later)
		requireCode(t, err, metadata.ErrNodeNotFound)

		got, err = store.GetNode(t.Context(), alice.ID, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", got.Name)

		err = store.RenameNode(t.Context(), alice.ID, uuid.New(), "x", later)
		requireCode(t, err, metadata.ErrNodeNotFound)
	})

	t.Run("UpdateURL", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1000)
		file := newFile(acc.ID, nil, "a", "png", 1, baseTime())
		insert(t, store, file)

		at := baseTime().Add(time.Hour)
		require.NoError(t, store.UpdateNodeURL(t.Context(), acc.ID, file.ID, "https://signed/a", at))

		got, err := store.GetNode(t.Context(), acc.ID, file.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://signed/a", got.URL)
		assert.True(t, at.Equal(got.LastModified))
		assert.True(t, file.CreatedAt.Equal(got.CreatedAt))

		err = store.UpdateNodeURL(t.Context(), uuid.New(), file.ID, "x", at)
		requireCode(t, err, metadata.ErrNodeNotFound)
	})
}
