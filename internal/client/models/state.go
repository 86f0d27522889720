package models

import (
	"errors"
	"fmt"
)

// SyncState is the outcome of applying or syncing a single record.
// Error states are terminal for the operation that produced them.
type SyncState int

const (
	Unchanged SyncState = iota
	Created
	Updated
	Deleted
	SendToServer
	ErrorInvalidURI
	ErrorInvalidRepo
	ErrorMissingKey
	ErrorMalformattedData
	ErrorConnection
)

var stateNames = [...]string{
	Unchanged:             "Unchanged",
	Created:               "Created",
	Updated:               "Updated",
	Deleted:               "Deleted",
	SendToServer:          "SendToServer",
	ErrorInvalidURI:       "Error_Invalid_Uri",
	ErrorInvalidRepo:      "Error_Invalid_Repo",
	ErrorMissingKey:       "Error_Missing_Key",
	ErrorMalformattedData: "Error_Malformatted_Data",
	ErrorConnection:       "Error_Connection",
}

func (s SyncState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("SyncState(%d)", int(s))
}

// IsError reports whether s is one of the Error_* states.
func (s SyncState) IsError() bool {
	return s >= ErrorInvalidURI
}

// Applied reports whether s describes a mutation of local state.
func (s SyncState) Applied() bool {
	return s == Created || s == Updated || s == Deleted
}

// Sentinel errors mirroring the error states. Lower layers wrap these so the
// service layer can turn any error chain into a SyncState.
var (
	ErrInvalidURI    = errors.New("invalid uri")
	ErrInvalidRepo   = errors.New("record does not belong to this repository")
	ErrMissingKey    = errors.New("missing key")
	ErrMalformedData = errors.New("malformed data")
	ErrConnection    = errors.New("connection error")
)

// StateError carries a SyncState through an error return.
type StateError struct {
	State SyncState
	Err   error
}

func (e *StateError) Error() string {
	if e.Err == nil {
		return e.State.String()
	}
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// Err returns nil for non-error states and a *StateError otherwise.
func (s SyncState) Err() error {
	if !s.IsError() {
		return nil
	}
	return &StateError{State: s, Err: stateSentinel(s)}
}

func stateSentinel(s SyncState) error {
	switch s {
	case ErrorInvalidURI:
		return ErrInvalidURI
	case ErrorInvalidRepo:
		return ErrInvalidRepo
	case ErrorMissingKey:
		return ErrMissingKey
	case ErrorMalformattedData:
		return ErrMalformedData
	case ErrorConnection:
		return ErrConnection
	}
	return nil
}

// StateFromError maps an error chain onto the taxonomy. Unknown errors are
// treated as connection failures: the caller retries on the next cycle.
func StateFromError(err error) SyncState {
	if err == nil {
		return Unchanged
	}
	var se *StateError
	if errors.As(err, &se) {
		return se.State
	}
	switch {
	case errors.Is(err, ErrInvalidURI):
		return ErrorInvalidURI
	case errors.Is(err, ErrInvalidRepo):
		return ErrorInvalidRepo
	case errors.Is(err, ErrMissingKey):
		return ErrorMissingKey
	case errors.Is(err, ErrMalformedData):
		return ErrorMalformattedData
	default:
		return ErrorConnection
	}
}
