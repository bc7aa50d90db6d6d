// Package common holds the sentinel errors shared by stores, services and
// handlers. Callers match them with errors.Is.
package common

import "errors"

var (
	// Record store errors.
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service errors.
	ErrValidation = errors.New("validation error")
	ErrTimeout    = errors.New("timeout")
)
