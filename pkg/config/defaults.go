package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/servr/pkg/accounts"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetadataDefaults(&cfg.Metadata)
	applyBlobDefaults(&cfg.Blob)
	applyAccountsDefaults(&cfg.Accounts)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.Storage.ApplyDefaults()
	cfg.API.ApplyDefaults()
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetadataDefaults defaults to an embedded sqlite file under
// $XDG_DATA_HOME/servr.
func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = MetadataSQLite
	}

	switch cfg.Type {
	case MetadataSQLite:
		if cfg.SQLite.Path == "" {
			cfg.SQLite.Path = filepath.Join(dataDir(), "metadata.db")
		}
	case MetadataBadger:
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			cfg.Badger.Path = filepath.Join(dataDir(), "badger")
		}
	case MetadataPostgres:
		if cfg.Driver == "" {
			cfg.Driver = DriverPgx
		}
		cfg.Postgres.ApplyDefaults()
	}
}

func applyBlobDefaults(cfg *BlobConfig) {
	if cfg.Type == "" {
		cfg.Type = BlobMemory
	}
	if cfg.Type == BlobS3 && cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}

func applyAccountsDefaults(cfg *AccountsConfig) {
	if cfg.DefaultStorageLimit == 0 {
		cfg.DefaultStorageLimit = accounts.DefaultStorageLimit
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = accounts.DefaultBcryptCost
	}
}

// applyMetricsDefaults sets the port only when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func dataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "servr")
}

// GetDefaultConfig returns a Config with all default values applied.
// Used to generate sample configuration files.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
