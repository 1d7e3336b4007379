package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/servr/pkg/metadata"
)

// reader runs the read queries against the pool or an open transaction.
type reader struct {
	q querier
}

func (r reader) GetNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = $1 AND owner_id = $2`, id, ownerID)
	n, err := scanNode(row)
	if err != nil {
		return nil, mapPgError(err, "get_node", metadata.NewNodeNotFoundError(id))
	}
	return n, nil
}

func (r reader) ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE owner_id = $1 ORDER BY created_at, id::text`, ownerID)
	if err != nil {
		return nil, mapPgError(err, "list_nodes", nil)
	}
	defer rows.Close()

	nodes := make([]*metadata.Node, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, mapPgError(err, "list_nodes", nil)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "list_nodes", nil)
	}
	return nodes, nil
}

func (r reader) GetAccount(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, ownerID)
	a, err := scanAccount(row)
	if err != nil {
		return nil, mapPgError(err, "get_account", metadata.NewAccountNotFoundError(ownerID.String()))
	}
	return a, nil
}
