package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeader is returned when the source has no rows at all. It is
	// wrapped together with io.EOF.
	ErrNoHeader = errors.New("no header row")

	// ErrSealed is the panic value for registering on a type that has
	// already been extended or used to build a parser.
	ErrSealed = errors.New("parser type is sealed")
)

// RowError reports a failure while processing one data row.
type RowError struct {
	Line   int    // 1-based record number in the source (header is line 1)
	Header string // Column being processed, empty for read errors
	Err    error
}

func (e *RowError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("line %d: column %q: %v", e.Line, e.Header, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
