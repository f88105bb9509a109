package types

import "errors"

// Error taxonomy. Callers wrap these with context and test with errors.Is.
var (
	// ErrValidation marks a shape, bound or domain violation detected before
	// any state changes. The caller must reject the action.
	ErrValidation = errors.New("validation error")

	// ErrImport marks an unparsable or irrecoverably malformed upload.
	ErrImport = errors.New("import error")

	// ErrCoercion marks a cell value that is not numeric.
	ErrCoercion = errors.New("coercion error")

	// ErrAlgorithm marks a failure inside the allocation collaborator.
	ErrAlgorithm = errors.New("algorithm error")
)

// Lookup errors.
var (
	ErrNotFound         = errors.New("session not found")
	ErrUnknownTable     = errors.New("unknown table")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
