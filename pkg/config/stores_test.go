package config

import (
	"path/filepath"
	"testing"

	"github.com/marmos91/servr/pkg/blob/memory"
	"github.com/marmos91/servr/pkg/metadata/store/badger"
	"github.com/marmos91/servr/pkg/metadata/store/gormdb"
	memstore "github.com/marmos91/servr/pkg/metadata/store/memory"
)

func TestNewMetadataStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		meta  MetadataConfig
		check func(t *testing.T, store any)
	}{
		{
			name: "memory",
			meta: MetadataConfig{Type: MetadataMemory},
			check: func(t *testing.T, store any) {
				if _, ok := store.(*memstore.Store); !ok {
					t.Errorf("Expected *memory.Store, got %T", store)
				}
			},
		},
		{
			name: "sqlite",
			meta: MetadataConfig{Type: MetadataSQLite, SQLite: SQLiteConfig{Path: filepath.Join(dir, "metadata.db")}},
			check: func(t *testing.T, store any) {
				if _, ok := store.(*gormdb.Store); !ok {
					t.Errorf("Expected *gormdb.Store, got %T", store)
				}
			},
		},
		{
			name: "badger",
			meta: MetadataConfig{Type: MetadataBadger, Badger: badger.Config{InMemory: true}},
			check: func(t *testing.T, store any) {
				if _, ok := store.(*badger.Store); !ok {
					t.Errorf("Expected *badger.Store, got %T", store)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Metadata: tt.meta}
			ApplyDefaults(cfg)

			store, err := NewMetadataStore(t.Context(), cfg)
			if err != nil {
				t.Fatalf("NewMetadataStore failed: %v", err)
			}
			defer func() { _ = store.Close() }()

			tt.check(t, store)
			if err := store.Healthcheck(t.Context()); err != nil {
				t.Errorf("Healthcheck failed: %v", err)
			}
		})
	}
}

func TestNewMetadataStore_UnknownType(t *testing.T) {
	cfg := &Config{Metadata: MetadataConfig{Type: "mongodb"}}

	if _, err := NewMetadataStore(t.Context(), cfg); err == nil {
		t.Fatal("Expected error for unknown metadata type")
	}
}

func TestNewBlobGateway(t *testing.T) {
	cfg := GetDefaultConfig()

	gw, err := NewBlobGateway(t.Context(), cfg)
	if err != nil {
		t.Fatalf("NewBlobGateway failed: %v", err)
	}
	// Metrics are disabled, so the gateway is not wrapped.
	if _, ok := gw.(*memory.Gateway); !ok {
		t.Errorf("Expected *memory.Gateway, got %T", gw)
	}

	cfg.Blob.Type = "ftp"
	if _, err := NewBlobGateway(t.Context(), cfg); err == nil {
		t.Error("Expected error for unknown blob type")
	}
}

func TestMigrateMetadata(t *testing.T) {
	cfg := &Config{Metadata: MetadataConfig{
		Type:   MetadataSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "metadata.db")},
	}}
	ApplyDefaults(cfg)

	if err := MigrateMetadata(t.Context(), cfg); err != nil {
		t.Fatalf("MigrateMetadata failed: %v", err)
	}

	cfg.Metadata = MetadataConfig{Type: MetadataMemory}
	if err := MigrateMetadata(t.Context(), cfg); err != nil {
		t.Errorf("Expected memory store migration to be a no-op, got: %v", err)
	}
}
