package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "servr", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	spanCtx, span := StartSpan(ctx, "storage.list", OwnerID("o1"))
	defer span.End()

	assert.Empty(t, TraceID(spanCtx))
	assert.Empty(t, SpanID(spanCtx))
}

func TestOperationPropagatesError(t *testing.T) {
	boom := errors.New("boom")

	err := Operation(context.Background(), "upload", func(ctx context.Context) error {
		SetAttributes(ctx, Size(10))
		AddEvent(ctx, "blob.put")
		return boom
	}, OwnerID("o1"))
	assert.ErrorIs(t, err, boom)

	err = Operation(context.Background(), "rename", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestRecordErrorNil(t *testing.T) {
	RecordError(context.Background(), nil)
}

func TestParseProfileType(t *testing.T) {
	for _, name := range DefaultProfilingConfig().ProfileTypes {
		_, err := parseProfileType(name)
		assert.NoError(t, err, name)
	}

	_, err := parseProfileType("gpu")
	assert.Error(t, err)
}

func TestInitProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, stop())

	_, err = InitProfiling(ProfilingConfig{Enabled: true, ProfileTypes: []string{"gpu"}})
	assert.Error(t, err)
}
