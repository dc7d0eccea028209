package presence

import "errors"

// Sentinel errors for the presence service.
var (
	// ErrStorageUnavailable wraps Redis failures. Callers embedding presence
	// in a larger response should degrade to "unknown" instead of failing.
	ErrStorageUnavailable = errors.New("presence storage unavailable")
)
