package campaign

import "errors"

// Sentinel errors for campaign jobs.
var (
	// ErrMissingBinding marks a recipient whose personalization data is
	// incomplete. The runner skips that one recipient and continues.
	ErrMissingBinding = errors.New("missing personalization binding")
)
