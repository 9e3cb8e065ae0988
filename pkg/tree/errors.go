package tree

import "errors"

// StoreError represents a domain error from directory table operations.
//
// These are caller errors (reserved name, duplicate entry, missing entry)
// as opposed to protocol violations, which panic. Higher layers translate
// StoreError codes into their own error vocabulary.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Name is the entry name related to the error (if applicable)
	Name string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Name != "" {
		return e.Message + ": " + e.Name
	}
	return e.Message
}

// IsInvalidArgument reports whether the error belongs to the invalid-argument
// class. Reserved names, duplicate links and missing entries all do: they are
// caller errors that are never retried.
func (e *StoreError) IsInvalidArgument() bool {
	switch e.Code {
	case ErrInvalidArgument, ErrAlreadyExists, ErrNotFound:
		return true
	}
	return false
}

// ErrorCode represents the category of a StoreError.
type ErrorCode int

const (
	// ErrInvalidArgument indicates a reserved or malformed name was supplied
	ErrInvalidArgument ErrorCode = iota

	// ErrAlreadyExists indicates an entry with the name already exists
	ErrAlreadyExists

	// ErrNotFound indicates no entry exists for the name
	ErrNotFound

	// ErrNotDirectory indicates operation expected a directory but got a file
	ErrNotDirectory

	// ErrIsDirectory indicates operation expected a file but got a directory
	ErrIsDirectory

	// ErrNotEmpty indicates a directory still has children
	ErrNotEmpty

	// ErrNoSpace indicates a byte store reached its size limit
	ErrNoSpace
)

func (c ErrorCode) String() string {
	switch c {
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrAlreadyExists:
		return "already exists"
	case ErrNotFound:
		return "not found"
	case ErrNotDirectory:
		return "not a directory"
	case ErrIsDirectory:
		return "is a directory"
	case ErrNotEmpty:
		return "directory not empty"
	case ErrNoSpace:
		return "no space"
	default:
		return "unknown"
	}
}

// IsCode reports whether err wraps a StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == code
}

// IsInvalidArgument reports whether err wraps a StoreError of the
// invalid-argument class.
func IsInvalidArgument(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.IsInvalidArgument()
}
