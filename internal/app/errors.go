package service

import "errors"

// Sentinel kinds for service errors. Lower-layer errors are wrapped, so
// callers also match repository, scoring and queue sentinels with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotStarted     = errors.New("service not started")
	ErrStopped        = errors.New("service stopped")
)
