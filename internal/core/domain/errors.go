package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors. Expected reconciliation
// conditions (missing file, missing record, hash mismatch) are never
// errors: they are classified into plan items instead.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates no parser handles the file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a reconciliation run is already active.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrUnknownBackend indicates a storage backend name is not configured.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrDuplicateDocID indicates two managed files resolve to the same
	// document ID. This should not happen under the naming convention and
	// is surfaced as a scan error, never silently dropped.
	ErrDuplicateDocID = errors.New("duplicate document id")

	// ErrVerificationFailed indicates a migrated copy did not match the
	// source after writing. The source is never deleted past this error.
	ErrVerificationFailed = errors.New("copy verification failed")

	// ErrSearchUnavailable indicates the search index is not configured.
	ErrSearchUnavailable = errors.New("search index unavailable")
)
