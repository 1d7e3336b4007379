package blob

import (
	"context"
	"io"
	"time"
)

// Metrics receives per-call blob gateway measurements.
type Metrics interface {
	// ObserveOperation records one gateway call. err is nil on success.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved by operation.
	RecordBytes(operation string, bytes int64)
}

// Instrument wraps g so every call is reported to m. A nil m returns g
// unchanged.
func Instrument(g Gateway, m Metrics) Gateway {
	if m == nil {
		return g
	}
	return &instrumented{next: g, metrics: m}
}

type instrumented struct {
	next    Gateway
	metrics Metrics
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.metrics.ObserveOperation(op, time.Since(start), err)
}

func (i *instrumented) ContainerExists(ctx context.Context, container string) (bool, error) {
	start := time.Now()
	ok, err := i.next.ContainerExists(ctx, container)
	i.observe("container_exists", start, err)
	return ok, err
}

func (i *instrumented) CreateContainer(ctx context.Context, container string) error {
	start := time.Now()
	err := i.next.CreateContainer(ctx, container)
	i.observe("create_container", start, err)
	return err
}

func (i *instrumented) Put(ctx context.Context, container, key string, data io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := i.next.Put(ctx, container, key, data, size, contentType)
	i.observe("put", start, err)
	if err == nil {
		i.metrics.RecordBytes("put", size)
	}
	return err
}

func (i *instrumented) Delete(ctx context.Context, container, key string) error {
	start := time.Now()
	err := i.next.Delete(ctx, container, key)
	i.observe("delete", start, err)
	return err
}

func (i *instrumented) SignGet(ctx context.Context, container, key string, ttl time.Duration) (string, error) {
	start := time.Now()
	u, err := i.next.SignGet(ctx, container, key, ttl)
	i.observe("sign_get", start, err)
	return u, err
}

func (i *instrumented) Healthcheck(ctx context.Context) error {
	return i.next.Healthcheck(ctx)
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
