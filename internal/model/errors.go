package model

import "errors"

// Every failure in this application is recoverable: the state machine stays
// where it was and the operator is shown a message.
var (
	// ErrAuthenticationFailed means the username/password pair matched no
	// stored account.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrDuplicateEntry means the roster already holds this sicil.
	ErrDuplicateEntry = errors.New("personnel already added")

	// ErrNotFound means the identifier does not exist in the consulted
	// source.
	ErrNotFound = errors.New("not found")

	// ErrServiceUnavailable means the source could not be reached at all.
	// Distinct from ErrNotFound so logs can tell "degraded" from "absent",
	// even though the operator may be shown the same message for both.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrAlreadyExists means a create collided with an existing username.
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadyFinalized guards the one-shot finalize of a roster.
	ErrAlreadyFinalized = errors.New("roster already finalized")
)
