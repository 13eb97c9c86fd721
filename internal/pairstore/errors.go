package pairstore

import "errors"

var (
	// ErrDirectoryPermission indicates the store directory exists but cannot
	// be read due to permissions. Callers decide whether to retry or surface
	// a message; the scan itself is not retried internally.
	ErrDirectoryPermission = errors.New("photo library permission denied")

	// ErrDirectoryRead indicates a directory-level listing failure other
	// than permissions.
	ErrDirectoryRead = errors.New("photo library read failed")
)
