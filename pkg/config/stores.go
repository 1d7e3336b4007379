package config

import (
	"context"
	"fmt"

	"github.com/marmos91/servr/internal/logger"
	"github.com/marmos91/servr/pkg/blob"
	"github.com/marmos91/servr/pkg/blob/memory"
	"github.com/marmos91/servr/pkg/blob/s3"
	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/metadata/store/badger"
	"github.com/marmos91/servr/pkg/metadata/store/gormdb"
	memstore "github.com/marmos91/servr/pkg/metadata/store/memory"
	"github.com/marmos91/servr/pkg/metadata/store/postgres"
	promstore "github.com/marmos91/servr/pkg/metrics/prometheus"
)

// NewMetadataStore opens the node store selected by cfg.Metadata.
func NewMetadataStore(ctx context.Context, cfg *Config) (metadata.Store, error) {
	mc := cfg.Metadata
	logger.Debug("Opening metadata store", "type", mc.Type, "driver", mc.Driver)

	switch mc.Type {
	case MetadataMemory:
		return memstore.New(), nil

	case MetadataSQLite:
		return gormdb.New(&gormdb.Config{
			Type:   gormdb.DatabaseTypeSQLite,
			SQLite: gormdb.SQLiteConfig{Path: mc.SQLite.Path},
		})

	case MetadataPostgres:
		if mc.Driver == DriverGorm {
			pg := mc.Postgres
			return gormdb.New(&gormdb.Config{
				Type: gormdb.DatabaseTypePostgres,
				Postgres: gormdb.PostgresConfig{
					Host:         pg.Host,
					Port:         pg.Port,
					Database:     pg.Database,
					User:         pg.User,
					Password:     pg.Password,
					SSLMode:      pg.SSLMode,
					MaxOpenConns: int(pg.MaxConns),
					MaxIdleConns: int(pg.MinConns),
				},
			})
		}
		pg := mc.Postgres
		return postgres.New(ctx, &pg)

	case MetadataBadger:
		store, err := badger.New(mc.Badger)
		if err != nil {
			return nil, err
		}
		promstore.RegisterBadgerMetrics(store)
		return store, nil
	}
	return nil, fmt.Errorf("unsupported metadata store type: %s", mc.Type)
}

// NewBlobGateway creates the blob gateway selected by cfg.Blob, instrumented
// when metrics are enabled.
func NewBlobGateway(ctx context.Context, cfg *Config) (blob.Gateway, error) {
	var gw blob.Gateway
	switch cfg.Blob.Type {
	case BlobMemory:
		gw = memory.New()
	case BlobS3:
		s3gw, err := s3.NewFromConfig(ctx, cfg.Blob.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 gateway: %w", err)
		}
		gw = s3gw
	default:
		return nil, fmt.Errorf("unsupported blob gateway type: %s", cfg.Blob.Type)
	}

	if m := promstore.NewBlobMetrics(cfg.Blob.Type); m != nil {
		gw = blob.Instrument(gw, m)
	}
	return gw, nil
}

// MigrateMetadata brings the node store schema up to date. The pgx driver
// applies the embedded SQL migrations. The GORM-backed stores migrate on
// open, and memory and badger need no schema.
func MigrateMetadata(ctx context.Context, cfg *Config) error {
	mc := cfg.Metadata
	switch {
	case mc.Type == MetadataPostgres && mc.Driver != DriverGorm:
		pg := mc.Postgres
		return postgres.RunMigrations(ctx, &pg)
	case mc.Type == MetadataSQLite || mc.Type == MetadataPostgres:
		store, err := NewMetadataStore(ctx, cfg)
		if err != nil {
			return err
		}
		return store.Close()
	}
	logger.Info("Metadata store has no schema to migrate", "type", mc.Type)
	return nil
}
