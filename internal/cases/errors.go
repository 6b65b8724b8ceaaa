package cases

import "errors"

var (
	// ErrValidation covers missing required fields on a mutating call.
	ErrValidation = errors.New("cases: invalid input")
	// ErrEmptyMessage is returned when a message body trims to nothing.
	ErrEmptyMessage = errors.New("cases: empty message body")
	// ErrInvalidStatus is returned when a status does not normalize.
	ErrInvalidStatus = errors.New("cases: invalid status")
	// ErrCaseNotFound is returned when no case matches the query.
	ErrCaseNotFound = errors.New("cases: case not found")
	// ErrPersistence wraps backing-store failures. The in-memory state keeps
	// the mutation; callers should re-query rather than retry blindly.
	ErrPersistence = errors.New("cases: persistence failure")
)
