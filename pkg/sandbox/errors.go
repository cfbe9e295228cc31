package sandbox

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath is returned when a path is empty, absolute, or escapes the root
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound is returned when a file cannot be located under the root
	ErrNotFound = errors.New("file not found")
)

// AmbiguousError is returned when a basename search matches more than one file.
// Candidates holds project-relative paths the caller can present for disambiguation.
type AmbiguousError struct {
	Path       string
	Candidates []string
}

// Error implements the error interface
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("path %q is ambiguous; provide a more specific relative path (candidates: %s)",
		e.Path, strings.Join(e.Candidates, ", "))
}

// AsAmbiguous unwraps an AmbiguousError from err, if present
func AsAmbiguous(err error) (*AmbiguousError, bool) {
	var amb *AmbiguousError
	if errors.As(err, &amb) {
		return amb, true
	}
	return nil, false
}
