package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Reconciliation Errors.

	// ErrJoinMiss indicates a traced row has no matching audit row.
	// It is recoverable: the row is skipped and reported.
	ErrJoinMiss = errors.New("traced row has no matching audit row")

	// ErrMalformedDate indicates a traced date whose digits are not 4, 6 or 8 long.
	ErrMalformedDate = errors.New("malformed date")

	// Run Errors.

	// ErrNoPendingRun indicates no extracted run is waiting for reconciliation.
	ErrNoPendingRun = errors.New("no extracted run awaiting reconciliation")

	// ErrTracedFileNotFound indicates the tracing outbox holds no result for the run.
	ErrTracedFileNotFound = errors.New("traced file not found")

	// ErrAlreadyReconciled indicates the run has already produced a report.
	ErrAlreadyReconciled = errors.New("run already reconciled")

	// Connectivity Errors.

	// ErrRadarUnavailable indicates the Radar database could not be reached.
	ErrRadarUnavailable = errors.New("radar unavailable")

	// ErrRegistryUnavailable indicates the RR database could not be reached.
	ErrRegistryUnavailable = errors.New("registry unavailable")
)
