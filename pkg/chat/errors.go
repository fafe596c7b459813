package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for a submission that is blank after trimming.
	ErrInvalidInput = errors.New("message content cannot be empty")

	// ErrConcurrentStream is returned when an assistant stream is begun while
	// another entry is still streaming.
	ErrConcurrentStream = errors.New("another assistant entry is already streaming")

	// ErrUnknownEntry is returned when a mutation targets an id that is not in
	// the transcript, typically because the transcript was reset underneath a
	// stream that was still being read.
	ErrUnknownEntry = errors.New("unknown transcript entry")

	// ErrEntryFinalized is returned when a mutation targets an entry that has
	// already reached a terminal lifecycle.
	ErrEntryFinalized = errors.New("transcript entry is finalized")
)

// EntryError gives the id of the entry a mutation failed on.
type EntryError struct {
	Op    string
	ID    string
	Cause error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Cause)
}

func (e *EntryError) Unwrap() error {
	return e.Cause
}

func entryError(op, id string, cause error) error {
	return &EntryError{Op: op, ID: id, Cause: cause}
}
