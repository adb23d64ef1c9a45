package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound is returned when the source trace is missing or unreadable.
	ErrInputNotFound = errors.New("input not found")
	// ErrOutputWrite is returned when the destination cannot be created or written.
	ErrOutputWrite = errors.New("output write failure")
	// ErrMalformedRow is returned when a line lacks a requested column.
	ErrMalformedRow = errors.New("malformed row")
)

// MalformedRowError reports a line that has fewer fields than requested.
type MalformedRowError struct {
	Line   int // 1-based line number in the input
	Fields int // number of fields found on the line
	Index  int // 1-based column that was requested
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: want column %d, found %d fields", e.Line, e.Index, e.Fields)
}

func (e *MalformedRowError) Unwrap() error {
	return ErrMalformedRow
}
