package gormdb

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marmos91/servr/pkg/metadata"
)

// reader holds the queries shared by Store and transaction. db is either
// the pool or the open transaction.
type reader struct {
	db *gorm.DB
}

func (r reader) GetNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	var m nodeModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
		First(&m).Error
	if err != nil {
		return nil, convertError("get_node", err, metadata.NewNodeNotFoundError(id))
	}
	n, err := m.toNode()
	if err != nil {
		return nil, metadata.NewNodeStoreError("get_node", err)
	}
	return n, nil
}

func (r reader) ListNodes(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	var rows []nodeModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.String()).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, convertError("list_nodes", err, nil)
	}

	nodes := make([]*metadata.Node, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toNode()
		if err != nil {
			return nil, metadata.NewNodeStoreError("list_nodes", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (r reader) GetAccount(ctx context.Context, ownerID uuid.UUID) (*metadata.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).Where("id = ?", ownerID.String()).First(&m).Error; err != nil {
		return nil, convertError("get_account", err, metadata.NewAccountNotFoundError(ownerID.String()))
	}
	return toAccount(&m)
}

func toAccount(m *accountModel) (*metadata.Account, error) {
	a, err := m.toAccount()
	if err != nil {
		return nil, metadata.NewNodeStoreError("get_account", err)
	}
	return a, nil
}
