package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/internal/telemetry"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/urlcache"
)

// List returns every node of ownerID ordered by creation time, each file
// carrying a signed download URL.
//
// A cached listing is returned as is when it has entries and none of them
// needs a new signature. Otherwise the tree is read from the node store and
// every file whose URL is missing or older than the refresh horizon is
// signed again. A file that cannot be signed keeps its previous URL and
// does not fail the listing.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*metadata.Node, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, metadata.WithOp("list", err)
	}

	var nodes []*metadata.Node
	err := s.run(ctx, "list", ownerID, func(ctx context.Context) error {
		now := s.now().UTC()

		if cached, ok := s.cache.Get(ownerID); ok && len(cached.Nodes) > 0 && !cached.Stale(now, s.config.RefreshHorizon) {
			telemetry.SetAttributes(ctx, telemetry.CacheHit(true), telemetry.Entries(len(cached.Nodes)))
			nodes = cached.Nodes
			return nil
		}
		telemetry.SetAttributes(ctx, telemetry.CacheHit(false))

		container, err := s.ensureContainer(ctx, ownerID)
		if err != nil {
			return err
		}

		gen := s.cache.Generation(ownerID)
		fresh, err := s.store.ListNodes(ctx, ownerID)
		if err != nil {
			return err
		}

		refreshed := s.refreshURLs(ctx, container, fresh, now)
		telemetry.SetAttributes(ctx, telemetry.Entries(len(fresh)))
		logger.DebugCtx(ctx, "listing loaded",
			"entries", len(fresh),
			"refreshed", refreshed)

		if !s.cache.PutIfUnchanged(ownerID, gen, urlcache.Listing{Nodes: fresh, CapturedAt: now}) {
			logger.DebugCtx(ctx, "listing changed while loading, not cached")
		}
		nodes = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// refreshURLs signs every file of nodes that needs it and persists the new
// URLs. Each signature is bounded by PresignTimeout. Failures degrade the
// entry only. Returns the number of refreshed entries.
func (s *Service) refreshURLs(ctx context.Context, container string, nodes []*metadata.Node, now time.Time) int {
	var refreshed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.PresignConcurrency)

	for _, n := range nodes {
		if !urlcache.NeedsRefresh(n, now, s.config.RefreshHorizon) {
			continue
		}
		g.Go(func() error {
			if s.refreshURL(gctx, container, n, now) {
				refreshed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(refreshed.Load())
}

func (s *Service) refreshURL(ctx context.Context, container string, n *metadata.Node, now time.Time) bool {
	signCtx, cancel := context.WithTimeout(ctx, s.config.PresignTimeout)
	defer cancel()

	url, err := s.blobs.SignGet(signCtx, container, n.BlobKey(), s.config.SignTTL)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PresignFailed()
		}
		logger.WarnCtx(ctx, "presign failed, keeping previous url",
			logger.NodeID(n.ID.String()),
			logger.Key(n.BlobKey()),
			logger.Err(err))
		return false
	}

	if err := s.store.UpdateNodeURL(ctx, n.OwnerID, n.ID, url, now); err != nil {
		logger.WarnCtx(ctx, "persist signed url failed",
			logger.NodeID(n.ID.String()),
			logger.Err(err))
		return false
	}

	n.URL = url
	n.LastModified = now
	return true
}
