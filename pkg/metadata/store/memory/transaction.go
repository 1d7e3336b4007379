package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/marmos91/servr/pkg/metadata"
)

// transaction operates on a private copy of the store state.
type transaction struct {
	st *state
}

// WithTransaction runs fn against a copy of the state and installs the copy
// only if fn and the commit hook succeed.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx metadata.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &transaction{st: s.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.commitHook != nil {
		if err := s.commitHook(); err != nil {
			return err
		}
	}

	s.st = tx.st
	return nil
}

func (tx *transaction) GetNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getNode(tx.st, ownerID, id)
}

func (tx *transaction) ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listNodes(tx.st, ownerID), nil
}

func (tx *transaction) GetAccount(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getAccount(tx.st, ownerID)
}

func (tx *transaction) InsertNode(ctx context.Context, node *metadata.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := tx.st.nodes[node.ID]; ok {
		return metadata.NewAlreadyExistsError("node " + node.ID.String())
	}
	if node.ParentID != nil {
		if _, ok := tx.st.nodes[*node.ParentID]; !ok {
			return metadata.NewConflictError("parent of node %s no longer exists", node.ID)
		}
	}
	tx.st.nodes[node.ID] = node.Clone()
	return nil
}

func (tx *transaction) DeleteNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, ok := tx.st.nodes[id]
	if !ok || n.OwnerID != ownerID {
		return nil, metadata.NewNodeNotFoundError(id)
	}
	if children, _ := tx.CountChildren(ctx, ownerID, id); children > 0 {
		return nil, metadata.NewConflictError("folder %s is not empty", id)
	}
	delete(tx.st.nodes, id)
	return n, nil
}

func (tx *transaction) CountChildren(ctx context.Context, ownerID, id uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	for _, n := range tx.st.nodes {
		if n.OwnerID == ownerID && n.ParentID != nil && *n.ParentID == id {
			count++
		}
	}
	return count, nil
}

func (tx *transaction) Ancestors(ctx context.Context, ownerID, start uuid.UUID, maxDepth int) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, ok := tx.st.nodes[start]
	if !ok || n.OwnerID != ownerID {
		return nil, metadata.NewNodeNotFoundError(start)
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
		next, ok := tx.st.nodes[*n.ParentID]
		if !ok || next.OwnerID != ownerID {
			return chain, nil
		}
		n = next
	}
}

func (tx *transaction) AddNodeSize(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range ids {
		n, ok := tx.st.nodes[id]
		if !ok || n.OwnerID != ownerID {
			return metadata.NewNodeNotFoundError(id)
		}
		n.Size += delta
	}
	return nil
}

func (tx *transaction) AddStorageUsed(ctx context.Context, ownerID uuid.UUID, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a, ok := tx.st.accounts[ownerID]
	if !ok {
		return metadata.NewAccountNotFoundError(ownerID.String())
	}
	a.StorageUsed += delta
	return nil
}
