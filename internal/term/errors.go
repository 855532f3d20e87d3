package term

import "errors"

// Sentinel errors for the term package.
var (
	// ErrClosed is returned when operations are attempted on a closed terminal.
	ErrClosed = errors.New("terminal is closed")

	// ErrInvalidSize is returned when terminal size is invalid.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrShellNotFound is returned when the shell executable is not found.
	ErrShellNotFound = errors.New("shell not found")
)
