package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Span attribute keys for storage operations.
const (
	AttrOwnerID   = "servr.owner_id"
	AttrNodeID    = "servr.node_id"
	AttrParentID  = "servr.parent_id"
	AttrNodeKind  = "servr.node_kind"
	AttrSize      = "servr.size"
	AttrContainer = "blob.container"
	AttrBlobKey   = "blob.key"
	AttrCacheHit  = "cache.hit"
	AttrEntries   = "servr.entries"
	AttrStoreType = "store.type"
)

// OwnerID returns an owner id attribute.
func OwnerID(id string) attribute.KeyValue { return attribute.String(AttrOwnerID, id) }

// NodeID returns a node id attribute.
func NodeID(id string) attribute.KeyValue { return attribute.String(AttrNodeID, id) }

// Size returns a byte size attribute.
func Size(n int64) attribute.KeyValue { return attribute.Int64(AttrSize, n) }

// BlobKey returns a blob key attribute.
func BlobKey(k string) attribute.KeyValue { return attribute.String(AttrBlobKey, k) }

// CacheHit returns a cache hit attribute.
func CacheHit(hit bool) attribute.KeyValue { return attribute.Bool(AttrCacheHit, hit) }

// Entries returns a listing size attribute.
func Entries(n int) attribute.KeyValue { return attribute.Int(AttrEntries, n) }

// Operation runs fn inside a span named "storage."+op and records its error.
func Operation(ctx context.Context, op string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := StartSpan(ctx, "storage."+op, attrs...)
	defer span.End()

	if err := fn(ctx); err != nil {
		RecordError(ctx, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
