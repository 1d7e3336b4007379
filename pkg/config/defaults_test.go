package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/servr/internal/bytesize"
	"github.com/marmos91/servr/pkg/accounts"
	"github.com/marmos91/servr/pkg/metadata"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_API(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.API.IdleTimeout)
	}
	if cfg.API.MaxUploadSize != 100*bytesize.MiB {
		t.Errorf("Expected default max upload size 100MiB, got %s", cfg.API.MaxUploadSize)
	}
	if cfg.API.JWT.Issuer != "servr" {
		t.Errorf("Expected default JWT issuer 'servr', got %q", cfg.API.JWT.Issuer)
	}
}

func TestApplyDefaults_Metadata(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metadata.Type != MetadataSQLite {
		t.Errorf("Expected default metadata type 'sqlite', got %q", cfg.Metadata.Type)
	}
	if want := filepath.Join(dataHome, "servr", "metadata.db"); cfg.Metadata.SQLite.Path != want {
		t.Errorf("Expected sqlite path %q, got %q", want, cfg.Metadata.SQLite.Path)
	}

	badger := &Config{Metadata: MetadataConfig{Type: MetadataBadger}}
	ApplyDefaults(badger)
	if want := filepath.Join(dataHome, "servr", "badger"); badger.Metadata.Badger.Path != want {
		t.Errorf("Expected badger path %q, got %q", want, badger.Metadata.Badger.Path)
	}

	pg := &Config{Metadata: MetadataConfig{Type: MetadataPostgres}}
	ApplyDefaults(pg)
	if pg.Metadata.Driver != DriverPgx {
		t.Errorf("Expected default postgres driver 'pgx', got %q", pg.Metadata.Driver)
	}
	if pg.Metadata.Postgres.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", pg.Metadata.Postgres.Port)
	}
}

func TestApplyDefaults_BlobAndAccounts(t *testing.T) {
	cfg := &Config{Blob: BlobConfig{Type: BlobS3}}
	ApplyDefaults(cfg)

	if cfg.Blob.S3.Region != "us-east-1" {
		t.Errorf("Expected default S3 region 'us-east-1', got %q", cfg.Blob.S3.Region)
	}
	if cfg.Accounts.DefaultStorageLimit != accounts.DefaultStorageLimit {
		t.Errorf("Expected default storage limit %s, got %s", accounts.DefaultStorageLimit, cfg.Accounts.DefaultStorageLimit)
	}
	if cfg.Accounts.BcryptCost != accounts.DefaultBcryptCost {
		t.Errorf("Expected default bcrypt cost %d, got %d", accounts.DefaultBcryptCost, cfg.Accounts.BcryptCost)
	}
	if cfg.Storage.MaxDepth != metadata.DefaultMaxDepth {
		t.Errorf("Expected default max depth %d, got %d", metadata.DefaultMaxDepth, cfg.Storage.MaxDepth)
	}
	if cfg.Storage.RefreshHorizon >= cfg.Storage.SignTTL {
		t.Errorf("Refresh horizon %v must be below sign TTL %v", cfg.Storage.RefreshHorizon, cfg.Storage.SignTTL)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Expected no metrics port when disabled, got %d", cfg.Metrics.Port)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "stderr",
		},
		ShutdownTimeout: 5 * time.Second,
		Metadata:        MetadataConfig{Type: MetadataMemory},
		Accounts:        AccountsConfig{DefaultStorageLimit: bytesize.MiB, BcryptCost: 12},
	}
	cfg.API.Port = 9000

	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json' preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected output 'stderr' preserved, got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s preserved, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Metadata.Type != MetadataMemory {
		t.Errorf("Expected metadata type 'memory' preserved, got %q", cfg.Metadata.Type)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("Expected port 9000 preserved, got %d", cfg.API.Port)
	}
	if cfg.Accounts.DefaultStorageLimit != bytesize.MiB || cfg.Accounts.BcryptCost != 12 {
		t.Errorf("Expected accounts settings preserved, got %+v", cfg.Accounts)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should be valid, got error: %v", err)
	}
}
