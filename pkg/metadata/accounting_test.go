package metadata_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/metadata/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, s *memory.Store, used, limit int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, s.CreateAccount(t.Context(), &metadata.Account{
		ID:           id,
		Email:        id.String() + "@example.com",
		Active:       true,
		StorageUsed:  used,
		StorageLimit: limit,
		CreatedAt:    time.Now(),
	}))
	return id
}

func folder(owner uuid.UUID, parent *uuid.UUID) *metadata.Node {
	return &metadata.Node{ID: uuid.New(), OwnerID: owner, ParentID: parent, Kind: metadata.KindFolder, Name: "f"}
}

func TestReserve(t *testing.T) {
	s := memory.New()
	owner := seedAccount(t, s, 90, 100)

	acc, err := metadata.Reserve(t.Context(), s, owner, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 90, acc.StorageUsed)

	_, err = metadata.Reserve(t.Context(), s, owner, 11)
	assert.True(t, metadata.IsQuotaExceeded(err))

	_, err = metadata.Reserve(t.Context(), s, owner, -1)
	assert.True(t, metadata.IsValidation(err))

	_, err = metadata.Reserve(t.Context(), s, uuid.New(), 1)
	assert.Equal(t, metadata.ErrAccountNotFound, metadata.CodeOf(err))
}

func TestReserveZeroSizeAtLimit(t *testing.T) {
	s := memory.New()
	owner := seedAccount(t, s, 100, 100)

	_, err := metadata.Reserve(t.Context(), s, owner, 0)
	assert.NoError(t, err)
}

func TestPropagate(t *testing.T) {
	s := memory.New()
	owner := seedAccount(t, s, 0, 1000)

	root := folder(owner, nil)
	mid := folder(owner, &root.ID)
	leaf := folder(owner, &mid.ID)
	file := &metadata.Node{ID: uuid.New(), OwnerID: owner, ParentID: &leaf.ID, Kind: metadata.KindFile, Size: 7}

	err := s.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		for _, n := range []*metadata.Node{root, mid, leaf, file} {
			if err := tx.InsertNode(t.Context(), n); err != nil {
				return err
			}
		}
		return metadata.Propagate(t.Context(), tx, file, file.Size, metadata.DefaultMaxDepth)
	})
	require.NoError(t, err)

	for _, id := range []uuid.UUID{root.ID, mid.ID, leaf.ID} {
		n, err := s.GetNode(t.Context(), owner, id)
		require.NoError(t, err)
		assert.EqualValues(t, 7, n.Size)
	}

	err = s.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		return metadata.Propagate(t.Context(), tx, file, -file.Size, metadata.DefaultMaxDepth)
	})
	require.NoError(t, err)

	n, err := s.GetNode(t.Context(), owner, root.ID)
	require.NoError(t, err)
	assert.Zero(t, n.Size)
}

func TestPropagateRootLevelIsNoop(t *testing.T) {
	s := memory.New()
	owner := seedAccount(t, s, 0, 1000)
	file := &metadata.Node{ID: uuid.New(), OwnerID: owner, Kind: metadata.KindFile, Size: 5}

	err := s.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		return metadata.Propagate(t.Context(), tx, file, file.Size, metadata.DefaultMaxDepth)
	})
	assert.NoError(t, err)
}

func TestPropagateChainTooDeepRollsBack(t *testing.T) {
	s := memory.New()
	owner := seedAccount(t, s, 0, 1000)

	nodes := []*metadata.Node{folder(owner, nil)}
	for range 5 {
		nodes = append(nodes, folder(owner, &nodes[len(nodes)-1].ID))
	}
	require.NoError(t, s.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		for _, n := range nodes {
			if err := tx.InsertNode(t.Context(), n); err != nil {
				return err
			}
		}
		return nil
	}))

	file := &metadata.Node{ID: uuid.New(), OwnerID: owner, ParentID: &nodes[5].ID, Kind: metadata.KindFile, Size: 3}
	err := s.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		return metadata.Propagate(t.Context(), tx, file, file.Size, 4)
	})
	require.Error(t, err)
	assert.Equal(t, metadata.BackendNodeStore, metadata.BackendOf(err))

	for _, n := range nodes {
		got, err := s.GetNode(t.Context(), owner, n.ID)
		require.NoError(t, err)
		assert.Zero(t, got.Size)
	}
}

func TestPropagateMissingParent(t *testing.T) {
	s := memory.New()
	owner := seedAccount(t, s, 0, 1000)
	missing := uuid.New()
	file := &metadata.Node{ID: uuid.New(), OwnerID: owner, ParentID: &missing, Kind: metadata.KindFile, Size: 3}

	err := s.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
		return metadata.Propagate(t.Context(), tx, file, file.Size, metadata.DefaultMaxDepth)
	})
	assert.Equal(t, metadata.ErrNodeNotFound, metadata.CodeOf(err))
}
