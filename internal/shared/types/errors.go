package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry and store operations.
var (
	// ErrIDExists is returned when a caller-supplied window id is taken.
	ErrIDExists = errors.New("window id already exists")
	// ErrNotFound is returned by lookups that require presence.
	ErrNotFound = errors.New("not found")
	// ErrFileRead wraps fatal document read failures; the only error class
	// that aborts a restore.
	ErrFileRead = errors.New("document read failed")
)

// InvalidKindError reports an unknown window kind.
type InvalidKindError struct {
	Kind string
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid window kind %q", e.Kind)
}

// PayloadMismatchError reports a record whose payload variant disagrees with
// its kind.
type PayloadMismatchError struct {
	Kind    WindowKind
	Payload WindowKind
}

func (e *PayloadMismatchError) Error() string {
	return fmt.Sprintf("window kind %q cannot carry %q payload", e.Kind, e.Payload)
}

// DecodeError records a single recoverable decode failure. CellIndex is -1
// for document-level failures.
type DecodeError struct {
	CellIndex int    `json:"cell_index"`
	Message   string `json:"message"`
}

func (e DecodeError) Error() string {
	if e.CellIndex < 0 {
		return fmt.Sprintf("document: %s", e.Message)
	}
	return fmt.Sprintf("cell %d: %s", e.CellIndex, e.Message)
}
