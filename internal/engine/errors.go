package engine

import "errors"

var (
	// ErrIssues indicates the transaction has unresolved issues.
	ErrIssues = errors.New("transaction has issues")

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrDigestMismatch indicates a staged archive does not match its digest.
	ErrDigestMismatch = errors.New("digest mismatch")

	// ErrNoSnapshot indicates no metadata snapshot was configured.
	ErrNoSnapshot = errors.New("no snapshot configured")
)
