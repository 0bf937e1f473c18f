package models

import "errors"

var (
	// ErrValidation marks bad client input. Maps to 400.
	ErrValidation = errors.New("validation failed")
	// ErrBackendUnavailable means the store was never connected.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendOperation means a call to a connected store failed.
	ErrBackendOperation = errors.New("backend operation failed")
)
