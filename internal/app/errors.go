package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNotStarted is returned by operations that need the store before
	// Start has run.
	ErrNotStarted = errors.New("service not started")
)
