package gormdb

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marmos91/servr/pkg/metadata"
)

// ancestorsQuery walks parent references from a start node. The depth column
// bounds the recursion so a cycle cannot loop forever; the caller asks for
// maxDepth+1 levels and treats a full result as a chain that is too deep.
const ancestorsQuery = `
WITH RECURSIVE chain(id, parent_id, depth) AS (
	SELECT id, parent_id, 1 FROM nodes WHERE id = ? AND owner_id = ?
	UNION ALL
	SELECT n.id, n.parent_id, c.depth + 1
	FROM nodes n JOIN chain c ON n.id = c.parent_id
	WHERE n.owner_id = ? AND c.depth <= ?
)
SELECT id FROM chain ORDER BY depth`

type transaction struct {
	reader
}

// WithTransaction implements metadata.Transactor.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx metadata.Transaction) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&transaction{reader: reader{db: gtx}})
	})
}

func (tx *transaction) InsertNode(ctx context.Context, node *metadata.Node) error {
	if err := tx.db.WithContext(ctx).Create(fromNode(node)).Error; err != nil {
		if isUniqueConstraintError(err) {
			return metadata.NewAlreadyExistsError("node " + node.ID.String())
		}
		if isForeignKeyError(err) {
			return metadata.NewConflictError("parent of node %s no longer exists", node.ID)
		}
		return convertError("insert_node", err, nil)
	}
	return nil
}

func (tx *transaction) DeleteNode(ctx context.Context, ownerID, id uuid.UUID) (*metadata.Node, error) {
	node, err := tx.GetNode(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	result := tx.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
		Delete(&nodeModel{})
	if result.Error != nil {
		if isForeignKeyError(result.Error) {
			return nil, metadata.NewConflictError("folder %s is not empty", id)
		}
		return nil, convertError("delete_node", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return nil, metadata.NewNodeNotFoundError(id)
	}
	return node, nil
}

func (tx *transaction) CountChildren(ctx context.Context, ownerID, id uuid.UUID) (int, error) {
	var count int64
	err := tx.db.WithContext(ctx).
		Model(&nodeModel{}).
		Where("owner_id = ? AND parent_id = ?", ownerID.String(), id.String()).
		Count(&count).Error
	if err != nil {
		return 0, convertError("count_children", err, nil)
	}
	return int(count), nil
}

func (tx *transaction) Ancestors(ctx context.Context, ownerID, start uuid.UUID, maxDepth int) ([]uuid.UUID, error) {
	owner := ownerID.String()

	var ids []string
	err := tx.db.WithContext(ctx).
		Raw(ancestorsQuery, start.String(), owner, owner, maxDepth).
		Scan(&ids).Error
	if err != nil {
		return nil, convertError("ancestors", err, nil)
	}
	if len(ids) == 0 {
		return nil, metadata.NewNodeNotFoundError(start)
	}
	if len(ids) > maxDepth {
		return nil, metadata.NewChainTooDeepError(start, maxDepth)
	}

	chain := make([]uuid.UUID, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, metadata.NewNodeStoreError("ancestors", err)
		}
		chain = append(chain, id)
	}
	return chain, nil
}

func (tx *transaction) AddNodeSize(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, delta int64) error {
	for _, id := range ids {
		result := tx.db.WithContext(ctx).
			Model(&nodeModel{}).
			Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
			Update("size", gorm.Expr("size + ?", delta))
		if result.Error != nil {
			return convertError("add_node_size", result.Error, nil)
		}
		if result.RowsAffected == 0 {
			return metadata.NewNodeNotFoundError(id)
		}
	}
	return nil
}

func (tx *transaction) AddStorageUsed(ctx context.Context, ownerID uuid.UUID, delta int64) error {
	result := tx.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("id = ?", ownerID.String()).
		Update("storage_used", gorm.Expr("storage_used + ?", delta))
	if result.Error != nil {
		return convertError("add_storage_used", result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return metadata.NewAccountNotFoundError(ownerID.String())
	}
	return nil
}
