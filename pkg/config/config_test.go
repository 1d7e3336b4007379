package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/servr/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "info"

metadata:
  type: sqlite
  sqlite:
    path: "`+yamlSafePath(dir)+`/metadata.db"

api:
  port: 8081
  max_upload_size: 10MiB

accounts:
  default_storage_limit: 1GiB
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8081 {
		t.Errorf("Expected api port 8081, got %d", cfg.API.Port)
	}
	if cfg.API.MaxUploadSize != 10*bytesize.MiB {
		t.Errorf("Expected max_upload_size 10MiB, got %s", cfg.API.MaxUploadSize)
	}
	if cfg.Accounts.DefaultStorageLimit != bytesize.GiB {
		t.Errorf("Expected default_storage_limit 1GiB, got %s", cfg.Accounts.DefaultStorageLimit)
	}
	if cfg.Metadata.SQLite.Path != yamlSafePath(dir)+"/metadata.db" {
		t.Errorf("Unexpected sqlite path %q", cfg.Metadata.SQLite.Path)
	}
	if cfg.Blob.Type != BlobMemory {
		t.Errorf("Expected default blob type 'memory', got %q", cfg.Blob.Type)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Metadata.Type != MetadataSQLite {
		t.Errorf("Expected default metadata type 'sqlite', got %q", cfg.Metadata.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO
  invalid yaml here
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
metadata:
  type: mongodb
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown metadata type, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[metadata]
type = "memory"

[storage]
container_prefix = "servr-"
strict_quota = true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Storage.ContainerPrefix != "servr-" {
		t.Errorf("Expected container prefix 'servr-', got %q", cfg.Storage.ContainerPrefix)
	}
	if !cfg.Storage.StrictQuota {
		t.Error("Expected strict_quota to be true")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir := GetConfigDir()
	if dir != filepath.Join(xdg, "servr") {
		t.Errorf("Expected %q, got %q", filepath.Join(xdg, "servr"), dir)
	}
}

func TestDefaultConfigExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if DefaultConfigExists() {
		t.Fatal("Expected no config in an empty config dir")
	}
	if _, err := InitConfig(false); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !DefaultConfigExists() {
		t.Error("Expected config to exist after InitConfig")
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := MustLoad(""); err == nil {
		t.Error("Expected error when no default config exists")
	}
	if _, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing explicit path")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("SERVR_LOGGING_LEVEL", "ERROR")
	t.Setenv("SERVR_API_PORT", "9091")
	t.Setenv("SERVR_STORAGE_CONTAINER_PREFIX", "env-")
	t.Setenv("SERVR_API_JWT_SECRET", "test-secret-key-for-testing-minimum-32-chars")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "INFO"

metadata:
  type: memory

api:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9091 {
		t.Errorf("Expected port 9091 from env var, got %d", cfg.API.Port)
	}
	// Not present in the file at all.
	if cfg.Storage.ContainerPrefix != "env-" {
		t.Errorf("Expected container prefix 'env-' from env var, got %q", cfg.Storage.ContainerPrefix)
	}
	if cfg.API.GetJWTSecret() != "test-secret-key-for-testing-minimum-32-chars" {
		t.Errorf("Expected JWT secret from env var, got %q", cfg.API.GetJWTSecret())
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metadata.Type = MetadataMemory
	cfg.API.Port = 8181

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.API.Port != 8181 {
		t.Errorf("Expected port 8181, got %d", loaded.API.Port)
	}
	if loaded.Accounts.DefaultStorageLimit != cfg.Accounts.DefaultStorageLimit {
		t.Errorf("Storage limit did not round-trip: %s != %s",
			loaded.Accounts.DefaultStorageLimit, cfg.Accounts.DefaultStorageLimit)
	}
}
