package procrun

import "errors"

var (
	// ErrDisallowed is returned when the requested binary is not on the
	// allowlist.
	ErrDisallowed = errors.New("command not allowed")

	// ErrNotFound is returned when no candidate binary could be located on
	// PATH.
	ErrNotFound = errors.New("command not found")

	// ErrNotTracked is returned for stop requests targeting a pid that was
	// not spawned detached in this session.
	ErrNotTracked = errors.New("pid is not tracked in this session")

	// ErrInvalidCommand is returned for empty or malformed command vectors.
	ErrInvalidCommand = errors.New("cmd must be a non-empty list of strings")
)
