package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marmos91/servr/pkg/metadata"
)

// ancestorsQuery walks parent references from $1. The depth guard stops a
// cycle; asking for maxDepth+1 levels tells a too-long chain apart from one
// that fits exactly.
const ancestorsQuery = `
WITH RECURSIVE chain(id, parent_id, depth) AS (
	SELECT id, parent_id, 1 FROM nodes WHERE id = $1 AND owner_id = $2
	UNION ALL
	SELECT n.id, n.parent_id, c.depth + 1
	FROM nodes n JOIN chain c ON n.id = c.parent_id
	WHERE n.owner_id = $2 AND c.depth <= $3
)
SELECT id FROM chain ORDER BY depth`

type transaction struct {
	reader
	tx pgx.Tx
}

// WithTransaction implements metadata.Transactor.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx metadata.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return metadata.NewNodeStoreError("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if err := fn(&transaction{reader: reader{q: tx}, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return metadata.NewNodeStoreError("commit", err)
	}
	return nil
}

func (t *transaction) InsertNode(ctx context.Context, n *metadata.Node) error {
	shared := n.SharedWith
	if shared == nil {
		shared = []uuid.UUID{}
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO nodes (`+nodeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.OwnerID, n.ParentID, n.Name, string(n.Kind), string(n.FileType),
		n.Extension, n.Size, n.URL, n.CreatedAt, n.LastModified, shared)
	return mapPgError(err, "insert_node", nil)
}

func (t *transaction) DeleteNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	row := t.tx.QueryRow(ctx,
		`DELETE FROM nodes WHERE id = $1 AND owner_id = $2 RETURNING `+nodeColumns, id, ownerID)
	n, err := scanNode(row)
	if err != nil {
		return nil, mapPgError(err, "delete_node", metadata.NewNodeNotFoundError(id))
	}
	return n, nil
}

func (t *transaction) CountChildren(ctx context.Context, ownerID, id uuid.UUID) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM nodes WHERE owner_id = $1 AND parent_id = $2`, ownerID, id).Scan(&count)
	if err != nil {
		return 0, mapPgError(err, "count_children", nil)
	}
	return count, nil
}

func (t *transaction) Ancestors(ctx context.Context, ownerID, start uuid.UUID, maxDepth int) ([]uuid.UUID, error) {
	rows, err := t.tx.Query(ctx, ancestorsQuery, start, ownerID, maxDepth)
	if err != nil {
		return nil, mapPgError(err, "ancestors", nil)
	}
	chain, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, mapPgError(err, "ancestors", nil)
	}

	if len(chain) == 0 {
		return nil, metadata.NewNodeNotFoundError(start)
	}
	if len(chain) > maxDepth {
		return nil, metadata.NewChainTooDeepError(start, maxDepth)
	}
	return chain, nil
}

func (t *transaction) AddNodeSize(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, delta int64) error {
	if len(ids) == 0 {
		return nil
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE nodes SET size = size + $1 WHERE owner_id = $2 AND id = ANY($3)`,
		delta, ownerID, ids)
	if err != nil {
		return mapPgError(err, "add_node_size", nil)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return metadata.NewNodeNotFoundError(ids[len(ids)-1])
	}
	return nil
}

func (t *transaction) AddStorageUsed(ctx context.Context, ownerID uuid.UUID, delta int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE accounts SET storage_used = storage_used + $1 WHERE id = $2`, delta, ownerID)
	if err != nil {
		return mapPgError(err, "add_storage_used", nil)
	}
	if tag.RowsAffected() == 0 {
		return metadata.NewAccountNotFoundError(ownerID.String())
	}
	return nil
}
