package core

import "errors"

// Sentinel errors mapped to HTTP statuses at the handler boundary.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")

	// ErrUpstream marks a failed call to an external provider (502).
	ErrUpstream = errors.New("upstream provider failure")
)
