package badger

import (
	"context"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/marmos91/servr/pkg/metadata"
)

type transaction struct {
	txn *badgerdb.Txn
}

// WithTransaction implements metadata.Transactor. Read-write transactions
// run one at a time, so they never fail with a write conflict.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx metadata.Transaction) error) error {
	return s.update(ctx, "commit", func(txn *badgerdb.Txn) error {
		return fn(&transaction{txn: txn})
	})
}

func (tx *transaction) GetNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getNode(tx.txn, ownerID, id)
}

func (tx *transaction) ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listNodes(tx.txn, ownerID)
}

func (tx *transaction) GetAccount(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getAccount(tx.txn, ownerID)
}

func (tx *transaction) InsertNode(ctx context.Context, node *metadata.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := tx.txn.Get(keyNodeID(node.ID)); err == nil {
		return metadata.NewAlreadyExistsError("node " + node.ID.String())
	} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
		return err
	}

	if node.ParentID != nil {
		if _, err := tx.txn.Get(keyNodeID(*node.ParentID)); errors.Is(err, badgerdb.ErrKeyNotFound) {
			return metadata.NewConflictError("parent of node %s no longer exists", node.ID)
		} else if err != nil {
			return err
		}
	}

	if err := putNode(tx.txn, node); err != nil {
		return err
	}
	if err := tx.txn.Set(keyNodeID(node.ID), node.OwnerID[:]); err != nil {
		return err
	}
	if node.ParentID != nil {
		return tx.txn.Set(keyChild(node.OwnerID, *node.ParentID, node.ID), nil)
	}
	return nil
}

func (tx *transaction) DeleteNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := getNode(tx.txn, ownerID, id)
	if err != nil {
		return nil, err
	}
	children, err := tx.CountChildren(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if children > 0 {
		return nil, metadata.NewConflictError("folder %s is not empty", id)
	}
	if err := tx.txn.Delete(keyNode(ownerID, id)); err != nil {
		return nil, err
	}
	if err := tx.txn.Delete(keyNodeID(id)); err != nil {
		return nil, err
	}
	if n.ParentID != nil {
		if err := tx.txn.Delete(keyChild(ownerID, *n.ParentID, id)); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (tx *transaction) CountChildren(ctx context.Context, ownerID, id uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := keyChildPrefix(ownerID, id)
	it := tx.txn.NewIterator(badgerdb.IteratorOptions{Prefix: prefix})
	defer it.Close()

	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count, nil
}

func (tx *transaction) Ancestors(ctx context.Context, ownerID, start uuid.UUID, maxDepth int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := getNode(tx.txn, ownerID, start)
	if err != nil {
		return nil, err
	}

	chain := make([]uuid.UUID, 0, 8)
	for {
		if len(chain) == maxDepth {
			return nil, metadata.NewChainTooDeepError(start, maxDepth)
		}
		chain = append(chain, n.ID)
		if n.ParentID == nil {
			return chain, nil
		}
		next, err := getNode(tx.txn, ownerID, *n.ParentID)
		if metadata.CodeOf(err) == metadata.ErrNodeNotFound {
			return chain, nil
		}
		if err != nil {
			return nil, err
		}
		n = next
	}
}

func (tx *transaction) AddNodeSize(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		n, err := getNode(tx.txn, ownerID, id)
		if err != nil {
			return err
		}
		n.Size += delta
		if err := putNode(tx.txn, n); err != nil {
			return err
		}
	}
	return nil
}

func (tx *transaction) AddStorageUsed(ctx context.Context, ownerID uuid.UUID, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a, err := getAccount(tx.txn, ownerID)
	if err != nil {
		return err
	}
	a.StorageUsed += delta
	return putAccount(tx.txn, a)
}
