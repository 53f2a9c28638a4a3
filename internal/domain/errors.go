package domain

import "errors"

// Error kinds. Pipeline errors wrap one of these together with the
// underlying cause, so callers can branch with errors.Is and still reach
// driver errors with errors.As.
var (
	// ErrIO marks an unreadable input stream. Terminal for the run.
	ErrIO = errors.New("input unreadable")

	// ErrStore marks a failed begin, insert, commit, or query against the
	// store. Terminal for the run; the transaction has been rolled back.
	ErrStore = errors.New("store failure")
)
