package taskdb

import "errors"

var (
	// ErrInvalidPath indicates that a path segment does not name a stored node.
	ErrInvalidPath = errors.New("invalid path")

	// ErrEntryNotFound indicates that a requested entry could not be found.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidState indicates that an operation is not permitted in the
	// current mode of the database.
	ErrInvalidState = errors.New("invalid database state")

	// ErrMissingException indicates that no access exception is registered
	// for the requested node and entry.
	ErrMissingException = errors.New("missing access exception")

	// ErrIndexOutOfRange indicates that a flat index does not address a value.
	ErrIndexOutOfRange = errors.New("index out of range")
)
