package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadRequest marks a missing or malformed query parameter.
	ErrBadRequest = errors.New("bad request")
	// ErrWrite marks a failed append to the time-series store.
	ErrWrite = errors.New("write failed")
	// ErrQuery marks a failed or aborted range read.
	ErrQuery = errors.New("query failed")
)

// ValidationError lists the reading fields that were absent (or zero) and the
// ones that could not be read as a finite number.
type ValidationError struct {
	Missing   []string
	Invalid   []string
	Malformed error
}

func (e *ValidationError) Error() string {
	if e.Malformed != nil {
		return "malformed reading: " + e.Malformed.Error()
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return "invalid reading: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Malformed }

// Bad request causes. Each wraps ErrBadRequest.
var (
	ErrMissingDates  = fmt.Errorf("%w: start and end dates are required", ErrBadRequest)
	ErrInvalidDate   = fmt.Errorf("%w: invalid date", ErrBadRequest)
	ErrInvertedRange = fmt.Errorf("%w: start is after end", ErrBadRequest)
	ErrInvalidField  = fmt.Errorf("%w: unknown field", ErrBadRequest)
)
