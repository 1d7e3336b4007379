// Package memory implements blob.Gateway in process memory, with hooks to
// inject failures and latency. Used by tests and local development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/servr/pkg/blob"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Faults injects errors and latency into a Gateway. A nil error field means
// the call succeeds. Each field is read at call time, so tests may change
// them between calls through SetFaults.
type Faults struct {
	Put    error
	Delete error
	Sign   error
	Exists error

	// SignDelay blocks SignGet for the given duration or until ctx is done.
	SignDelay time.Duration
}

// Gateway is an in-memory blob.Gateway.
type Gateway struct {
	mu         sync.RWMutex
	containers map[string]map[string]Object
	faults     Faults
	closed     bool

	signCalls atomic.Int64
	now       func() time.Time
}

// New creates an empty Gateway.
func New() *Gateway {
	return &Gateway{
		containers: make(map[string]map[string]Object),
		now:        time.Now,
	}
}

// SetFaults replaces the injected faults.
func (g *Gateway) SetFaults(f Faults) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults = f
}

// SignCalls returns the number of SignGet calls so far.
func (g *Gateway) SignCalls() int64 {
	return g.signCalls.Load()
}

// Object returns the blob stored under key, if any.
func (g *Gateway) Object(container, key string) (Object, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	obj, ok := g.containers[container][key]
	return obj, ok
}

// Keys returns the number of blobs in container.
func (g *Gateway) Keys(container string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.containers[container])
}

// ContainerExists implements blob.Gateway.
func (g *Gateway) ContainerExists(ctx context.Context, container string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return false, blob.ErrClosed
	}
	if g.faults.Exists != nil {
		return false, g.faults.Exists
	}
	_, ok := g.containers[container]
	return ok, nil
}

// CreateContainer implements blob.Gateway.
func (g *Gateway) CreateContainer(ctx context.Context, container string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return blob.ErrClosed
	}
	if _, ok := g.containers[container]; !ok {
		g.containers[container] = make(map[string]Object)
	}
	return nil
}

// Put implements blob.Gateway.
func (g *Gateway) Put(ctx context.Context, container, key string, data io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, data)
	if err != nil {
		return fmt.Errorf("read blob body: %w", err)
	}
	if n != size {
		return fmt.Errorf("short blob body: read %d of %d bytes", n, size)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return blob.ErrClosed
	}
	if g.faults.Put != nil {
		return g.faults.Put
	}
	objects, ok := g.containers[container]
	if !ok {
		return blob.ErrContainerNotFound
	}
	objects[key] = Object{Data: buf.Bytes(), ContentType: contentType}
	return nil
}

// Delete implements blob.Gateway.
func (g *Gateway) Delete(ctx context.Context, container, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return blob.ErrClosed
	}
	if g.faults.Delete != nil {
		return g.faults.Delete
	}
	objects, ok := g.containers[container]
	if !ok {
		return blob.ErrContainerNotFound
	}
	delete(objects, key)
	return nil
}

// SignGet implements blob.Gateway. URLs have the form
// memory://<container>/<key>?expires=<unix>.
func (g *Gateway) SignGet(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	g.signCalls.Add(1)

	g.mu.RLock()
	faults, closed := g.faults, g.closed
	g.mu.RUnlock()

	if closed {
		return "", blob.ErrClosed
	}
	if faults.SignDelay > 0 {
		timer := time.NewTimer(faults.SignDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if faults.Sign != nil {
		return "", faults.Sign
	}

	u := url.URL{
		Scheme:   "memory",
		Host:     container,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(g.now().Add(ttl).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// Healthcheck implements blob.Gateway.
func (g *Gateway) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return blob.ErrClosed
	}
	return nil
}

// Close implements blob.Gateway.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

var _ blob.Gateway = (*Gateway)(nil)
