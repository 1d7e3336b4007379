package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/servr/pkg/metrics"
	"github.com/marmos91/servr/pkg/urlcache"
)

func TestConstructorsReturnNilWhenDisabled(t *testing.T) {
	metrics.Reset()

	assert.Nil(t, NewStorageMetrics())
	assert.Nil(t, NewBlobMetrics("memory"))
	assert.Nil(t, NewCacheMetrics())
	assert.Nil(t, NewHTTPMetrics())
	RegisterBadgerMetrics(fixedSizer{})
}

func TestStorageMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewStorageMetrics().(*storageMetrics)
	m.ObserveOperation("upload", 3*time.Millisecond, nil)
	m.ObserveOperation("upload", time.Millisecond, errors.New("boom"))
	m.QuotaRejected()
	m.Orphan("orphan_blob")
	m.PresignFailed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("upload", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotaRejections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orphans.WithLabelValues("orphan_blob")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.presignFailures))
}

func TestBlobMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewBlobMetrics("s3").(*blobMetrics)
	m.ObserveOperation("put", time.Millisecond, nil)
	m.RecordBytes("put", 512)

	assert.Equal(t, 512.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues("put")))

	n, err := testutil.GatherAndCount(metrics.GetRegistry(), "servr_blob_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCacheMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewCacheMetrics()
	cache, err := urlcache.New(urlcache.Config{Capacity: 1}, m)
	require.NoError(t, err)
	RegisterCacheSize(cache)

	cm := m.(*cacheMetrics)
	cm.CacheHit()
	cm.CacheMiss()
	cm.CacheMiss()
	cm.CacheEviction()

	assert.Equal(t, 1.0, testutil.ToFloat64(cm.lookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(cm.lookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cm.evictions))

	n, err := testutil.GatherAndCount(metrics.GetRegistry(), "servr_urlcache_entries")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHTTPMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	m := NewHTTPMetrics().(*httpMetrics)
	m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))

	m.ObserveRequest("GET", "/api/v1/nodes", 200, 2*time.Millisecond)
	m.RateLimited()

	assert.Zero(t, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/nodes", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

type fixedSizer struct{}

func (fixedSizer) Size() (int64, int64) { return 1024, 4096 }

func TestBadgerMetrics(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	RegisterBadgerMetrics(fixedSizer{})

	n, err := testutil.GatherAndCount(metrics.GetRegistry(), "servr_badger_size_bytes")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
