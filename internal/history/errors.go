package history

import "errors"

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("history: run not found")

	// ErrMissingID is returned when creating a run without an ID.
	ErrMissingID = errors.New("history: run id is required")
)
