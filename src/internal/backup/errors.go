package backup

import "errors"

var (
	// ErrNotFound indicates an unknown backup artifact id.
	ErrNotFound = errors.New("backup not found")

	// ErrValidationFailed indicates a restore precondition failure; the
	// datastore is untouched.
	ErrValidationFailed = errors.New("restore validation failed")

	// ErrStorageFailure indicates the underlying storage could not commit.
	// Create and restore both guarantee rollback to the prior state.
	ErrStorageFailure = errors.New("storage failure")

	// ErrInvalidSettings indicates a bad auto-backup configuration.
	ErrInvalidSettings = errors.New("invalid auto-backup settings")
)
