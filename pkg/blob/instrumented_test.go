package blob_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/blob"
	"github.com/marmos91/servr/pkg/blob/memory"
)

type recorder struct {
	ops   []string
	errs  int
	bytes int64
}

func (r *recorder) ObserveOperation(op string, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	if err != nil {
		r.errs++
	}
}

func (r *recorder) RecordBytes(_ string, n int64) { r.bytes += n }

func TestInstrument(t *testing.T) {
	inner := memory.New()
	rec := &recorder{}
	g := blob.Instrument(inner, rec)

	require.NoError(t, g.CreateContainer(t.Context(), "c"))
	require.NoError(t, g.Put(t.Context(), "c", "k", strings.NewReader("abcd"), 4, ""))
	_, err := g.SignGet(t.Context(), "c", "k", time.Hour)
	require.NoError(t, err)

	inner.SetFaults(memory.Faults{Delete: errors.New("boom")})
	assert.Error(t, g.Delete(t.Context(), "c", "k"))

	assert.Equal(t, []string{"create_container", "put", "sign_get", "delete"}, rec.ops)
	assert.Equal(t, 1, rec.errs)
	assert.EqualValues(t, 4, rec.bytes)
}

func TestInstrumentNilMetrics(t *testing.T) {
	inner := memory.New()
	assert.Same(t, blob.Gateway(inner), blob.Instrument(inner, nil))
}
