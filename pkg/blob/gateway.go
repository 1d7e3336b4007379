// Package blob defines the contract to the object store that holds file
// content. Every owner has one container; a file's content lives under the
// key returned by metadata.BlobKey.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultSignTTL is the lifetime of a signed download URL (7 days, the
// maximum S3 accepts for SigV4 presigned requests).
const DefaultSignTTL = 7 * 24 * time.Hour

var (
	// ErrContainerNotFound is returned when the addressed container does not
	// exist.
	ErrContainerNotFound = errors.New("blob container not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("blob gateway is closed")
)

// Gateway is the object store as seen by the storage orchestrator.
//
// Implementations must be safe for concurrent use and must honor ctx
// cancellation on every call.
type Gateway interface {
	// ContainerExists reports whether container has been provisioned.
	ContainerExists(ctx context.Context, container string) (bool, error)

	// CreateContainer provisions container. Creating an existing container
	// is not an error.
	CreateContainer(ctx context.Context, container string) error

	// Put stores size bytes read from data under key.
	Put(ctx context.Context, container, key string, data io.Reader, size int64, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, container, key string) error

	// SignGet returns a URL granting read access to key for ttl.
	SignGet(ctx context.Context, container, key string, ttl time.Duration) (string, error)

	// Healthcheck verifies the object store is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the gateway.
	Close() error
}

// ContainerName returns the container of ownerID: prefix followed by the
// owner id.
func ContainerName(prefix, ownerID string) string {
	return prefix + ownerID
}
