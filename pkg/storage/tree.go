package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/internal/telemetry"
	"github.com/marmos91/servr/pkg/metadata"
)

// CreateFolder creates an empty folder under parentID, or at the root when
// parentID is nil. The parent must be a folder of the same owner.
func (s *Service) CreateFolder(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*metadata.Node, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, metadata.WithOp("create_folder", err)
	}
	name, err := metadata.NormalizeName(name)
	if err != nil {
		return nil, metadata.WithOp("create_folder", err)
	}

	now := s.now().UTC()
	folder := &metadata.Node{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		ParentID:     parentID,
		Name:         name,
		Kind:         metadata.KindFolder,
		FileType:     metadata.FileTypeFolder,
		CreatedAt:    now,
		LastModified: now,
		SharedWith:   []uuid.UUID{},
	}

	err = s.run(ctx, "create_folder", ownerID, func(ctx context.Context) error {
		err := s.store.WithTransaction(ctx, func(tx metadata.Transaction) error {
			if err := checkParent(ctx, tx, ownerID, parentID); err != nil {
				return err
			}
			return tx.InsertNode(ctx, folder)
		})
		if err != nil {
			return err
		}

		s.cache.Invalidate(ownerID)
		logger.DebugCtx(ctx, "folder created", logger.NodeID(folder.ID.String()))
		return nil
	}, telemetry.NodeID(folder.ID.String()))
	if err != nil {
		return nil, err
	}
	return folder, nil
}

// Delete removes a file and its content, or an empty folder.
//
// The node delete, the negative size propagation and, for files, the
// storage_used decrement run in one transaction which commits only after
// the blob was deleted. A failed blob delete leaves the node and every
// counter untouched. A commit failure after the blob delete is reported to
// the Reconciler as a dangling blob.
func (s *Service) Delete(ctx context.Context, ownerID, nodeID uuid.UUID) (*metadata.Node, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, metadata.WithOp("delete", err)
	}

	var deleted *metadata.Node
	err := s.run(ctx, "delete", ownerID, func(ctx context.Context) error {
		container := s.Container(ownerID)

		var blobGone bool
		err := s.store.WithTransaction(ctx, func(tx metadata.Transaction) error {
			n, err := tx.GetNode(ctx, ownerID, nodeID)
			if err != nil {
				return err
			}
			if n.IsFolder() {
				children, err := tx.CountChildren(ctx, ownerID, nodeID)
				if err != nil {
					return err
				}
				if children > 0 {
					return metadata.NewConflictError("folder %s is not empty", nodeID)
				}
			}

			if n, err = tx.DeleteNode(ctx, ownerID, nodeID); err != nil {
				return err
			}
			if err := metadata.Propagate(ctx, tx, n, -n.Size, s.config.MaxDepth); err != nil {
				return err
			}
			deleted = n

			if n.IsFolder() {
				return nil
			}
			if err := tx.AddStorageUsed(ctx, ownerID, -n.Size); err != nil {
				return err
			}
			if err := s.blobs.Delete(ctx, container, n.BlobKey()); err != nil {
				return metadata.NewBlobStoreError("delete", err)
			}
			blobGone = true
			return nil
		})
		if err != nil {
			if blobGone {
				s.reportOrphan(ctx, OrphanEvent{
					Kind:      DanglingBlob,
					OwnerID:   ownerID,
					NodeID:    nodeID,
					Container: container,
					Key:       deleted.BlobKey(),
					Err:       err,
				})
			}
			return err
		}

		s.cache.Invalidate(ownerID)
		logger.InfoCtx(ctx, "node deleted",
			logger.NodeID(nodeID.String()),
			logger.Size(deleted.Size))
		return nil
	}, telemetry.NodeID(nodeID.String()))
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// Rename changes the name of a node. A node owned by someone else is
// reported as not found and keeps its name. Sizes are not touched.
func (s *Service) Rename(ctx context.Context, ownerID, nodeID uuid.UUID, newName string) error {
	if err := validateOwner(ownerID); err != nil {
		return metadata.WithOp("rename", err)
	}
	name, err := metadata.NormalizeName(newName)
	if err != nil {
		return metadata.WithOp("rename", err)
	}

	return s.run(ctx, "rename", ownerID, func(ctx context.Context) error {
		if err := s.store.RenameNode(ctx, ownerID, nodeID, name, s.now().UTC()); err != nil {
			return err
		}
		s.cache.Invalidate(ownerID)
		return nil
	}, telemetry.NodeID(nodeID.String()))
}

// QuotaReport is the storage usage of an owner.
type QuotaReport struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Available int64 `json:"available"`
}

// Quota returns the storage usage of ownerID.
func (s *Service) Quota(ctx context.Context, ownerID uuid.UUID) (*QuotaReport, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, metadata.WithOp("quota", err)
	}

	var report *QuotaReport
	err := s.run(ctx, "quota", ownerID, func(ctx context.Context) error {
		account, err := s.store.GetAccount(ctx, ownerID)
		if err != nil {
			return err
		}
		report = &QuotaReport{
			Used:      account.StorageUsed,
			Limit:     account.StorageLimit,
			Available: account.Available(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
