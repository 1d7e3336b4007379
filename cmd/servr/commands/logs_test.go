package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailLines(t *testing.T) {
	input := "one\ntwo\nthree\nfour\nfive\n"

	var buf bytes.Buffer
	require.NoError(t, tailLines(strings.NewReader(input), &buf, 3, time.Time{}))
	assert.Equal(t, "three\nfour\nfive\n", buf.String())

	buf.Reset()
	require.NoError(t, tailLines(strings.NewReader(input), &buf, 10, time.Time{}))
	assert.Equal(t, input, buf.String())

	buf.Reset()
	require.NoError(t, tailLines(strings.NewReader(input), &buf, 0, time.Time{}))
	assert.Empty(t, buf.String())
}

func TestTailLinesSince(t *testing.T) {
	input := strings.Join([]string{
		`{"time":"2026-01-15T09:00:00Z","level":"INFO","msg":"old"}`,
		`{"time":"2026-01-15T11:00:00Z","level":"INFO","msg":"new"}`,
		`continuation without timestamp`,
	}, "\n")

	since := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, tailLines(strings.NewReader(input), &buf, 100, since))

	out := buf.String()
	assert.NotContains(t, out, `"old"`)
	assert.Contains(t, out, `"new"`)
	assert.Contains(t, out, "continuation")
}

func TestLineTimestamp(t *testing.T) {
	text := lineTimestamp("[2026-01-15 10:30:45] [INFO] Server is running")
	assert.Equal(t, time.Date(2026, 1, 15, 10, 30, 45, 0, time.Local), text)

	js := lineTimestamp(`{"time":"2026-01-15T10:30:45.123Z","msg":"x"}`)
	assert.True(t, js.Equal(time.Date(2026, 1, 15, 10, 30, 45, 123_000_000, time.UTC)))

	assert.True(t, lineTimestamp("no timestamp here").IsZero())
	assert.True(t, lineTimestamp("[not a time] x").IsZero())
	assert.True(t, lineTimestamp("{broken json").IsZero())
}
