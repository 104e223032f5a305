package remote

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is wrapped when a response envelope cannot be read
// at all. Per-entry problems are reported as DecodeError instead.
var ErrMalformedResponse = errors.New("malformed response")

// SyncError is a failed exchange with the remote store: a transport
// error, a non-2xx status or an unreadable envelope.
type SyncError struct {
	Op         string
	EntryID    string
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	target := e.Op
	if e.EntryID != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.EntryID)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %v", target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", target, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// DecodeError describes one entry of a collection that could not be read.
// The entry is left out of the refreshed collection.
type DecodeError struct {
	Key string
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding entry %q (id %q): %v", e.Key, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
