package storetest

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/blob/memory"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/storage"
	"github.com/marmos91/servr/pkg/urlcache"
)

// runAccountingTests drives the storage service on top of the store and
// checks that folder sizes and storage_used stay consistent.
func runAccountingTests(t *testing.T, factory StoreFactory) {
	t.Run("RandomSequence", func(t *testing.T) {
		for _, seed := range []uint64{1, 7, 42} {
			t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
				runRandomSequence(t, factory(t), seed, 60)
			})
		}
	})

	t.Run("ConcurrentWriters", func(t *testing.T) {
		store := factory(t)
		acc := newAccount(t, store, "a@example.com", 1<<20)
		folder := newFolder(acc.ID, nil, "f", baseTime())
		insert(t, store, folder)

		const writers = 8
		errs := make([]error, writers)

		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				file := newFile(acc.ID, idPtr(folder.ID), fmt.Sprintf("w%d", i), "bin", 10, baseTime())
				errs[i] = store.WithTransaction(t.Context(), func(tx metadata.Transaction) error {
					if _, err := metadata.Reserve(t.Context(), tx, acc.ID, file.Size); err != nil {
						return err
					}
					if err := tx.InsertNode(t.Context(), file); err != nil {
						return err
					}
					if err := metadata.Propagate(t.Context(), tx, file, file.Size, metadata.DefaultMaxDepth); err != nil {
						return err
					}
					if err := tx.AddStorageUsed(t.Context(), acc.ID, file.Size); err != nil {
						return err
					}
					// Stands in for the blob write that runs before commit.
					time.Sleep(5 * time.Millisecond)
					return nil
				})
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			assert.NoError(t, err, "writer %d", i)
		}

		a, err := store.GetAccount(t.Context(), acc.ID)
		require.NoError(t, err)
		assert.EqualValues(t, writers*10, a.StorageUsed)

		f, err := store.GetNode(t.Context(), acc.ID, folder.ID)
		require.NoError(t, err)
		assert.EqualValues(t, writers*10, f.Size)
	})
}

func runRandomSequence(t *testing.T, store metadata.Store, seed uint64, steps int) {
	t.Helper()

	acc := newAccount(t, store, "owner@example.com", 1<<30)
	cache, err := urlcache.New(urlcache.Config{}, nil)
	require.NoError(t, err)

	svc := storage.New(store, memory.New(), cache, storage.Config{ContainerPrefix: "servr-"})
	_, err = svc.ProvisionContainer(t.Context(), acc.ID)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(seed, seed))
	var nodes []*metadata.Node

	pickFolder := func() *uuid.UUID {
		var folders []uuid.UUID
		for _, n := range nodes {
			if n.IsFolder() {
				folders = append(folders, n.ID)
			}
		}
		if len(folders) == 0 || rng.IntN(4) == 0 {
			return nil
		}
		return idPtr(folders[rng.IntN(len(folders))])
	}

	for step := range steps {
		switch op := rng.IntN(10); {
		case op < 3:
			folder, err := svc.CreateFolder(t.Context(), acc.ID, fmt.Sprintf("d%d", step), pickFolder())
			require.NoError(t, err, "step %d", step)
			nodes = append(nodes, folder)

		case op < 7:
			size := 1 + rng.IntN(50)
			file, err := svc.Upload(t.Context(), storage.UploadRequest{
				OwnerID:     acc.ID,
				ParentID:    pickFolder(),
				Filename:    fmt.Sprintf("f%d.txt", step),
				ContentType: "text/plain",
				Size:        int64(size),
				Body:        strings.NewReader(strings.Repeat("x", size)),
			})
			require.NoError(t, err, "step %d", step)
			nodes = append(nodes, file)

		default:
			if len(nodes) == 0 {
				continue
			}
			i := rng.IntN(len(nodes))
			_, err := svc.Delete(t.Context(), acc.ID, nodes[i].ID)
			if metadata.CodeOf(err) == metadata.ErrConflict {
				break
			}
			require.NoError(t, err, "step %d", step)
			nodes = append(nodes[:i], nodes[i+1:]...)
		}

		requireAccountingHolds(t, store, acc.ID, step)
	}
}

// requireAccountingHolds recomputes every folder size and the owner's
// storage_used from the file nodes and compares them with the stored values.
func requireAccountingHolds(t *testing.T, store metadata.Store, ownerID uuid.UUID, step int) {
	t.Helper()

	nodes, err := store.ListNodes(t.Context(), ownerID)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]*metadata.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	want := make(map[uuid.UUID]int64)
	var total int64
	for _, n := range nodes {
		if n.IsFolder() {
			continue
		}
		total += n.Size
		for parent := n.ParentID; parent != nil; {
			p, ok := byID[*parent]
			require.True(t, ok, "step %d: node %s has a dangling parent", step, n.ID)
			want[p.ID] += n.Size
			parent = p.ParentID
		}
	}

	for _, n := range nodes {
		if n.IsFolder() {
			assert.Equal(t, want[n.ID], n.Size, "step %d: folder %s", step, n.Name)
		}
	}

	acc, err := store.GetAccount(t.Context(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, total, acc.StorageUsed, "step %d: storage_used", step)
}
