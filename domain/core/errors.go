package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrMalformedInput  = errors.New("malformed input grid")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidParams   = errors.New("invalid parameters")

	// Selection errors
	ErrEmptySelection   = errors.New("selection has no numeric values")
	ErrInvalidSelection = errors.New("invalid selection")

	// Reference errors
	ErrUnknownElement     = errors.New("no reference value for element")
	ErrNoActiveReference  = errors.New("no active reference row")
	ErrReferenceNotLoaded = fmt.Errorf("%w: reference table is empty", ErrUnknownElement)

	// Session errors
	ErrNotLoaded            = errors.New("no grid loaded")
	ErrNavigationClosed     = errors.New("navigation disabled: all columns processed")
	ErrIncompleteProcessing = errors.New("not all columns have been processed")
)

// Error constructors with context
func NewMalformedInputError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, reason)
}

func NewRowOutOfRangeError(row, rows int) error {
	return fmt.Errorf("%w: row %d (rows: %d)", ErrIndexOutOfRange, row, rows)
}

func NewColumnOutOfRangeError(col, cols int) error {
	return fmt.Errorf("%w: column %d (editable columns: 1..%d)", ErrIndexOutOfRange, col, cols-1)
}

func NewInvalidParamsError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParams, field, reason)
}

func NewInvalidSelectionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSelection, reason)
}

func NewUnknownElementError(element string) error {
	return fmt.Errorf("%w %q", ErrUnknownElement, element)
}

func NewIncompleteProcessingError(missing []int) error {
	return fmt.Errorf("%w: columns %v not committed", ErrIncompleteProcessing, missing)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrInvalidParams)
}

func IsSelectionError(err error) bool {
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrInvalidSelection)
}

func IsReferenceError(err error) bool {
	return errors.Is(err, ErrUnknownElement) ||
		errors.Is(err, ErrNoActiveReference)
}

func IsSessionError(err error) bool {
	return errors.Is(err, ErrNotLoaded) ||
		errors.Is(err, ErrNavigationClosed) ||
		errors.Is(err, ErrIncompleteProcessing)
}
