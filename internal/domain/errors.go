package domain

import "errors"

// Error taxonomy shared by stores, services, and the HTTP layer. Stores wrap
// medium-level failures in ErrStorageUnavailable; services wrap field
// problems in ErrValidation before any write happens.
var (
	// ErrNotFound is returned by accessors for a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the storage medium is unreachable. The
	// failed operation is fatal for that step, not for the process.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrValidation means an entity field is malformed; nothing was written.
	ErrValidation = errors.New("validation failed")

	// ErrConsolidationAborted means a consolidation run failed internally.
	// No partial batch was applied and the watermark is unchanged, so the
	// run is safe to retry.
	ErrConsolidationAborted = errors.New("consolidation aborted")

	// ErrConsolidationActive means a run was already in flight. The trigger
	// is a no-op, not a failure: pending episodes will be picked up by the
	// next successful run.
	ErrConsolidationActive = errors.New("consolidation already running")
)
