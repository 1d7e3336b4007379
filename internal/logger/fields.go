package logger

import "log/slog"

// Standard field keys. Use these so log lines can be aggregated and queried.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeyRequestID = "request_id"
	KeyOperation = "operation"
	KeyClientIP  = "client_ip"
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"

	// Tree
	KeyOwnerID  = "owner_id"
	KeyNodeID   = "node_id"
	KeyParentID = "parent_id"
	KeyName     = "name"
	KeyKind     = "kind"
	KeySize     = "size"
	KeyDelta    = "delta"
	KeyDepth    = "depth"
	KeyEntries  = "entries"

	// Quota
	KeyStorageUsed  = "storage_used"
	KeyStorageLimit = "storage_limit"

	// Blob gateway
	KeyContainer = "container"
	KeyKey       = "key"
	KeyBackend   = "backend"
	KeyStoreType = "store_type"

	// Cache
	KeyCacheHit = "cache_hit"
	KeyStale    = "stale"

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
)

// OwnerID returns an owner_id attribute.
func OwnerID(id string) slog.Attr { return slog.String(KeyOwnerID, id) }

// NodeID returns a node_id attribute.
func NodeID(id string) slog.Attr { return slog.String(KeyNodeID, id) }

// Container returns a container attribute.
func Container(name string) slog.Attr { return slog.String(KeyContainer, name) }

// Key returns a blob key attribute.
func Key(k string) slog.Attr { return slog.String(KeyKey, k) }

// Size returns a size attribute in bytes.
func Size(n int64) slog.Attr { return slog.Int64(KeySize, n) }

// DurationMs returns a duration_ms attribute.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns an error attribute. A nil error yields an empty attribute which
// handlers drop.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
