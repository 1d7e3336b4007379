// Package storage is the use-case layer over the node tree and the blob
// store. It sequences the quota check, the node store transaction, ancestor
// accounting and the blob write so that a file node exists exactly when its
// content does, and keeps the per-owner listing cache coherent.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/internal/telemetry"
	"github.com/marmos91/servr/pkg/blob"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/urlcache"
)

// Config tunes the orchestrator.
type Config struct {
	// ContainerPrefix is prepended to the owner id to name its container.
	ContainerPrefix string `mapstructure:"container_prefix" yaml:"container_prefix"`

	// SignTTL is the lifetime of signed download URLs. Default: 7 days.
	SignTTL time.Duration `mapstructure:"sign_ttl" yaml:"sign_ttl" validate:"gte=0"`

	// RefreshHorizon is the age after which a URL is signed again.
	// Must be below SignTTL. Default: 6 days.
	RefreshHorizon time.Duration `mapstructure:"refresh_horizon" yaml:"refresh_horizon" validate:"gte=0"`

	// PresignTimeout bounds each signing call during a listing. Default: 5s.
	PresignTimeout time.Duration `mapstructure:"presign_timeout" yaml:"presign_timeout" validate:"gte=0"`

	// PresignConcurrency bounds parallel signing calls per listing. Default: 8.
	PresignConcurrency int `mapstructure:"presign_concurrency" yaml:"presign_concurrency" validate:"gte=0"`

	// MaxDepth bounds parent chain walks. Default: metadata.DefaultMaxDepth.
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth" validate:"gte=0"`

	// StrictQuota repeats the quota check inside the write transaction.
	StrictQuota bool `mapstructure:"strict_quota" yaml:"strict_quota"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.SignTTL == 0 {
		c.SignTTL = blob.DefaultSignTTL
	}
	if c.RefreshHorizon == 0 {
		c.RefreshHorizon = urlcache.DefaultRefreshHorizon
	}
	if c.PresignTimeout == 0 {
		c.PresignTimeout = 5 * time.Second
	}
	if c.PresignConcurrency == 0 {
		c.PresignConcurrency = 8
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = metadata.DefaultMaxDepth
	}
}

// Metrics receives orchestrator events. A nil Metrics disables reporting.
type Metrics interface {
	ObserveOperation(operation string, duration time.Duration, err error)
	QuotaRejected()
	Orphan(kind string)
	PresignFailed()
}

// Service implements the storage operations.
type Service struct {
	store      metadata.Store
	blobs      blob.Gateway
	cache      *urlcache.Cache
	reconciler Reconciler
	metrics    Metrics
	config     Config
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithReconciler replaces the default LogReconciler.
func WithReconciler(r Reconciler) Option {
	return func(s *Service) { s.reconciler = r }
}

// WithMetrics enables metric reporting.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. cache may be shared with other services.
func New(store metadata.Store, blobs blob.Gateway, cache *urlcache.Cache, config Config, opts ...Option) *Service {
	config.ApplyDefaults()

	s := &Service{
		store:      store,
		blobs:      blobs,
		cache:      cache,
		reconciler: LogReconciler{},
		config:     config,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Container returns the container name of ownerID.
func (s *Service) Container(ownerID uuid.UUID) string {
	return blob.ContainerName(s.config.ContainerPrefix, ownerID.String())
}

// Healthcheck checks both backends.
func (s *Service) Healthcheck(ctx context.Context) error {
	if err := s.store.Healthcheck(ctx); err != nil {
		return metadata.WithOp("healthcheck", err)
	}
	if err := s.blobs.Healthcheck(ctx); err != nil {
		return metadata.NewBlobStoreError("healthcheck", err)
	}
	return nil
}

// run wraps one operation with its span, log context, metric and the op
// name on its error.
func (s *Service) run(ctx context.Context, op string, ownerID uuid.UUID, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	start := time.Now()

	ctx = logger.AnnotateOwner(ctx, ownerID.String())
	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithOperation(op))
	}

	attrs = append(attrs, telemetry.OwnerID(ownerID.String()))
	err := telemetry.Operation(ctx, op, fn, attrs...)
	err = metadata.WithOp(op, err)

	if s.metrics != nil {
		s.metrics.ObserveOperation(op, time.Since(start), err)
	}
	if err != nil {
		logFailure(ctx, err)
	}
	return err
}

// logFailure logs user errors at debug and backend failures at warn. The
// operation and owner come from the log context set up by run.
func logFailure(ctx context.Context, err error) {
	if metadata.IsBackend(err) || metadata.CodeOf(err) == 0 {
		logger.WarnCtx(ctx, "storage operation failed", logger.Err(err))
		return
	}
	logger.DebugCtx(ctx, "storage operation rejected", logger.Err(err))
}

// ensureContainer maps a missing container to ErrContainerNotFound.
func (s *Service) ensureContainer(ctx context.Context, ownerID uuid.UUID) (string, error) {
	container := s.Container(ownerID)
	ok, err := s.blobs.ContainerExists(ctx, container)
	if err != nil {
		return "", metadata.NewBlobStoreError("container_exists", err)
	}
	if !ok {
		return "", metadata.NewContainerNotFoundError(container)
	}
	return container, nil
}

// checkParent verifies parentID is a folder of ownerID.
func checkParent(ctx context.Context, r metadata.Reader, ownerID uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	parent, err := r.GetNode(ctx, ownerID, *parentID)
	if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return metadata.NewConflictError("parent %s is not a folder", parentID)
	}
	return nil
}

func validateOwner(ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return metadata.NewValidationError("owner id is required")
	}
	return nil
}
