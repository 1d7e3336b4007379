package metadata

import (
	"context"

	"github.com/marmos91/servr/internal/logger"
)

// Propagate adds delta to the size of every folder above node, from its
// parent up to the root, inside tx. Root-level nodes and zero deltas are a
// no-op. The walk is bounded by maxDepth; a longer chain aborts with a
// backend error so the caller's transaction rolls back and no ancestor is
// left partially updated.
//
// Moving a node between parents would need Propagate(-size) on the old chain
// and Propagate(+size) on the new one inside the same transaction.
func Propagate(ctx context.Context, tx Transaction, node *Node, delta int64, maxDepth int) error {
	if node.ParentID == nil || delta == 0 {
		return nil
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	chain, err := tx.Ancestors(ctx, node.OwnerID, *node.ParentID, maxDepth)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return NewNodeNotFoundError(*node.ParentID)
	}

	if err := tx.AddNodeSize(ctx, node.OwnerID, chain, delta); err != nil {
		return err
	}

	logger.DebugCtx(ctx, "propagated size delta",
		logger.KeyNodeID, node.ID.String(),
		logger.KeyDelta, delta,
		logger.KeyDepth, len(chain))
	return nil
}
