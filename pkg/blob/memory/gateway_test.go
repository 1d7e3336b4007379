package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/blob"
)

func TestContainerLifecycle(t *testing.T) {
	g := New()

	ok, err := g.ContainerExists(t.Context(), "c")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.CreateContainer(t.Context(), "c"))
	require.NoError(t, g.CreateContainer(t.Context(), "c"))

	ok, err = g.ContainerExists(t.Context(), "c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPutAndDelete(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateContainer(t.Context(), "c"))

	require.NoError(t, g.Put(t.Context(), "c", "k.txt", strings.NewReader("hello"), 5, "text/plain"))
	obj, ok := g.Object("c", "k.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)

	require.NoError(t, g.Delete(t.Context(), "c", "k.txt"))
	require.NoError(t, g.Delete(t.Context(), "c", "k.txt"))
	assert.Zero(t, g.Keys("c"))
}

func TestPutMissingContainer(t *testing.T) {
	g := New()
	err := g.Put(t.Context(), "nope", "k", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, blob.ErrContainerNotFound)
}

func TestPutShortBody(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateContainer(t.Context(), "c"))
	err := g.Put(t.Context(), "c", "k", strings.NewReader("abc"), 10, "")
	assert.Error(t, err)
	assert.Zero(t, g.Keys("c"))
}

func TestFaults(t *testing.T) {
	g := New()
	require.NoError(t, g.CreateContainer(t.Context(), "c"))

	boom := errors.New("boom")
	g.SetFaults(Faults{Put: boom, Delete: boom, Sign: boom})

	assert.ErrorIs(t, g.Put(t.Context(), "c", "k", strings.NewReader("x"), 1, ""), boom)
	assert.ErrorIs(t, g.Delete(t.Context(), "c", "k"), boom)
	_, err := g.SignGet(t.Context(), "c", "k", time.Hour)
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, g.SignCalls())
}

func TestSignGet(t *testing.T) {
	g := New()
	fixed := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return fixed }

	u, err := g.SignGet(t.Context(), "c", "id.png", blob.DefaultSignTTL)
	require.NoError(t, err)
	assert.Equal(t, "memory://c/id.png?expires=1700604800", u)
}

func TestSignDelayHonorsContext(t *testing.T) {
	g := New()
	g.SetFaults(Faults{SignDelay: time.Minute})

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := g.SignGet(ctx, "c", "k", time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClosed(t *testing.T) {
	g := New()
	require.NoError(t, g.Close())
	assert.ErrorIs(t, g.Healthcheck(t.Context()), blob.ErrClosed)
	assert.ErrorIs(t, g.CreateContainer(t.Context(), "c"), blob.ErrClosed)
}
