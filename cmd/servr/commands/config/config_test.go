package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/config"
)

func TestMasked(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.API.JWT.Secret = "top-secret"
	cfg.Metadata.Postgres.Password = "pw"

	m := masked(cfg)
	assert.Equal(t, mask, m.API.JWT.Secret)
	assert.Equal(t, mask, m.Metadata.Postgres.Password)
	assert.Empty(t, m.Blob.S3.SecretAccessKey)

	assert.Equal(t, "top-secret", cfg.API.JWT.Secret, "original must be untouched")
}

func TestConfigWarnings(t *testing.T) {
	t.Setenv("SERVR_API_JWT_SECRET", "")

	cfg := config.GetDefaultConfig()
	cfg.Metadata.Type = config.MetadataMemory
	cfg.Blob.Type = config.BlobMemory
	assert.Len(t, configWarnings(cfg), 3)

	cfg.API.JWT.Secret = "s"
	cfg.Metadata.Type = config.MetadataSQLite
	cfg.Blob.Type = config.BlobS3
	assert.Empty(t, configWarnings(cfg))
}

func TestGenerateSchema(t *testing.T) {
	out, err := generateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(out, &schema))
	assert.Equal(t, "servr Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"logging", "metadata", "blob", "cache", "storage", "accounts", "api", "metrics"} {
		assert.Contains(t, props, key)
	}
}
