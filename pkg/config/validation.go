package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags, then the section of the selected metadata
// and blob backends.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	switch cfg.Metadata.Type {
	case MetadataSQLite:
		if cfg.Metadata.SQLite.Path == "" {
			return fmt.Errorf("metadata.sqlite.path is required")
		}
	case MetadataPostgres:
		if err := cfg.Metadata.Postgres.Validate(); err != nil {
			return fmt.Errorf("metadata.postgres: %w", err)
		}
	case MetadataBadger:
		if cfg.Metadata.Badger.Path == "" && !cfg.Metadata.Badger.InMemory {
			return fmt.Errorf("metadata.badger.path is required")
		}
	}

	if cfg.Blob.Type == BlobS3 {
		s3 := cfg.Blob.S3
		if (s3.AccessKeyID == "") != (s3.SecretAccessKey == "") {
			return fmt.Errorf("blob.s3: access_key_id and secret_access_key must be set together")
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.API.Port {
		return fmt.Errorf("metrics.port and api.port must differ, both are %d", cfg.API.Port)
	}
	return nil
}
