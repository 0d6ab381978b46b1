package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing fields (context level)
// Propagated through the call chain of a request
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldIdentity is the rate-limit identity of the caller
	FieldIdentity = "identity"

	// FieldCategory is the category filter of a listing request
	FieldCategory = "category"
)

// ============================================
// Metric and event fields (entry level)
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldCacheKey is the cache key (upstream URL) of a lookup
	FieldCacheKey = "cache_key"

	// FieldCacheStore is the backing store of the response cache
	FieldCacheStore = "cache_store"

	// FieldPage is the page index of a listing fetch
	FieldPage = "page"
)
