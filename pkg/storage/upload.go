package storage

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/internal/telemetry"
	"github.com/marmos91/servr/pkg/metadata"
)

// UploadRequest is the input of Upload.
type UploadRequest struct {
	OwnerID  uuid.UUID
	ParentID *uuid.UUID // nil uploads to the root

	// Filename is split into the node name and the extension used in the
	// blob key.
	Filename    string
	ContentType string

	Size int64
	Body io.Reader
}

func (r *UploadRequest) validate() error {
	if err := validateOwner(r.OwnerID); err != nil {
		return err
	}
	if r.Size < 0 {
		return metadata.NewValidationError("size must not be negative, got %d", r.Size)
	}
	if r.Body == nil {
		return metadata.NewValidationError("file content is required")
	}
	return nil
}

// ProvisionContainer creates the blob container of ownerID. Calling it for
// an existing container is a no-op.
func (s *Service) ProvisionContainer(ctx context.Context, ownerID uuid.UUID) (string, error) {
	if err := validateOwner(ownerID); err != nil {
		return "", err
	}

	container := s.Container(ownerID)
	err := s.run(ctx, "provision_container", ownerID, func(ctx context.Context) error {
		if err := s.blobs.CreateContainer(ctx, container); err != nil {
			return metadata.NewBlobStoreError("create_container", err)
		}
		logger.InfoCtx(ctx, "container provisioned", logger.Container(container))
		return nil
	})
	if err != nil {
		return "", err
	}
	return container, nil
}

// Upload stores a new file and its content.
//
// The node insert, the size propagation to every ancestor folder and the
// storage_used increment run in one transaction, and the blob is written
// before that transaction commits. If the blob write fails nothing is
// committed. If the commit fails after the blob was written the blob is
// reported to the Reconciler as an orphan.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*metadata.Node, error) {
	if err := req.validate(); err != nil {
		return nil, metadata.WithOp("upload", err)
	}

	name, ext := metadata.SplitFilename(req.Filename)
	name, err := metadata.NormalizeName(name)
	if err != nil {
		return nil, metadata.WithOp("upload", err)
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = metadata.DefaultContentType
	}

	now := s.now().UTC()
	node := &metadata.Node{
		ID:           uuid.New(),
		OwnerID:      req.OwnerID,
		ParentID:     req.ParentID,
		Name:         name,
		Kind:         metadata.KindFile,
		FileType:     metadata.ClassifyContentType(contentType),
		Extension:    ext,
		Size:         req.Size,
		CreatedAt:    now,
		LastModified: now,
		SharedWith:   []uuid.UUID{},
	}
	key := node.BlobKey()

	err = s.run(ctx, "upload", req.OwnerID, func(ctx context.Context) error {
		if err := checkParent(ctx, s.store, req.OwnerID, req.ParentID); err != nil {
			return err
		}

		container, err := s.ensureContainer(ctx, req.OwnerID)
		if err != nil {
			return err
		}

		if _, err := metadata.Reserve(ctx, s.store, req.OwnerID, req.Size); err != nil {
			if metadata.IsQuotaExceeded(err) && s.metrics != nil {
				s.metrics.QuotaRejected()
			}
			return err
		}

		var stored bool
		err = s.store.WithTransaction(ctx, func(tx metadata.Transaction) error {
			if s.config.StrictQuota {
				if _, err := metadata.Reserve(ctx, tx, req.OwnerID, req.Size); err != nil {
					if metadata.IsQuotaExceeded(err) && s.metrics != nil {
						s.metrics.QuotaRejected()
					}
					return err
				}
			}
			if err := tx.InsertNode(ctx, node); err != nil {
				return err
			}
			if err := metadata.Propagate(ctx, tx, node, node.Size, s.config.MaxDepth); err != nil {
				return err
			}
			if err := tx.AddStorageUsed(ctx, req.OwnerID, node.Size); err != nil {
				return err
			}
			if err := s.blobs.Put(ctx, container, key, req.Body, req.Size, contentType); err != nil {
				return metadata.NewBlobStoreError("put", err)
			}
			stored = true
			return nil
		})
		if err != nil {
			if stored {
				s.reportOrphan(ctx, OrphanEvent{
					Kind:      OrphanBlob,
					OwnerID:   req.OwnerID,
					NodeID:    node.ID,
					Container: container,
					Key:       key,
					Err:       err,
				})
			}
			return err
		}

		s.cache.Invalidate(req.OwnerID)
		logger.InfoCtx(ctx, "file uploaded",
			logger.NodeID(node.ID.String()),
			logger.Key(key),
			logger.Size(node.Size))
		return nil
	}, telemetry.NodeID(node.ID.String()), telemetry.Size(req.Size), telemetry.BlobKey(key))
	if err != nil {
		return nil, err
	}
	return node, nil
}
