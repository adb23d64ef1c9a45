package cli

import (
	"errors"

	"github.com/SmitUplenchwar2687/accesstrace/internal/trace"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitInputNotFound = 2
	ExitOutputWrite   = 3
	ExitMalformedRow  = 4
)

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, trace.ErrInputNotFound):
		return ExitInputNotFound
	case errors.Is(err, trace.ErrOutputWrite):
		return ExitOutputWrite
	case errors.Is(err, trace.ErrMalformedRow):
		return ExitMalformedRow
	default:
		return ExitFailure
	}
}
