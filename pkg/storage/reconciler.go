package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/servr/internal/logger"
)

// OrphanKind tells which side of a cross-store write was left behind.
type OrphanKind string

const (
	// OrphanBlob is content whose node was never committed.
	OrphanBlob OrphanKind = "orphan_blob"

	// DanglingBlob is a committed-looking node whose content was already
	// deleted when the node delete failed to commit.
	DanglingBlob OrphanKind = "dangling_blob"
)

// OrphanEvent describes one inconsistency between the node store and the
// blob store.
type OrphanEvent struct {
	Kind      OrphanKind
	OwnerID   uuid.UUID
	NodeID    uuid.UUID
	Container string
	Key       string
	Err       error // the commit error
}

// Reconciler is told about every inconsistency the orchestrator could not
// prevent. Implementations may repair it or queue it for an operator.
type Reconciler interface {
	Orphan(ctx context.Context, ev OrphanEvent)
}

// LogReconciler only logs the event at ERROR.
type LogReconciler struct{}

// Orphan implements Reconciler.
func (LogReconciler) Orphan(ctx context.Context, ev OrphanEvent) {
	args := []any{
		"kind", string(ev.Kind),
		logger.NodeID(ev.NodeID.String()),
		logger.Container(ev.Container),
		logger.Key(ev.Key),
		logger.Err(ev.Err),
	}
	if lc := logger.FromContext(ctx); lc == nil || lc.OwnerID == "" {
		args = append(args, logger.OwnerID(ev.OwnerID.String()))
	}
	logger.ErrorCtx(ctx, "orphan detected", args...)
}

// ReconcilerFunc adapts a function to Reconciler.
type ReconcilerFunc func(ctx context.Context, ev OrphanEvent)

// Orphan implements Reconciler.
func (f ReconcilerFunc) Orphan(ctx context.Context, ev OrphanEvent) { f(ctx, ev) }

func (s *Service) reportOrphan(ctx context.Context, ev OrphanEvent) {
	if s.metrics != nil {
		s.metrics.Orphan(string(ev.Kind))
	}
	s.reconciler.Orphan(ctx, ev)
}
