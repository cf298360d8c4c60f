package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows means the file decoded but held a header and no data rows.
	ErrNoRows = errors.New("no data rows")

	// ErrUndecodable means no attempted text encoding produced a valid table.
	ErrUndecodable = errors.New("not decodable in any supported encoding")

	// ErrNoHeader means the file was empty.
	ErrNoHeader = errors.New("missing header row")
)

// LoadError reports a source table that could not be loaded. It is fatal for
// that table: no aggregation runs over a table that failed to load.
type LoadError struct {
	Path     string
	Encoding string // last encoding attempted, if any
	Err      error
}

func (e *LoadError) Error() string {
	if e.Encoding != "" {
		return fmt.Sprintf("load %s (%s): %v", e.Path, e.Encoding, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}
