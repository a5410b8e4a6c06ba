package common

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedFormat is returned when no dialect, not even raw, can handle the input
var ErrUnrecognizedFormat = errors.New("unrecognized log format")

// IOError reports a failure to read an input
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	path := e.Path
	if path == "" {
		path = "<stdin>"
	}
	return fmt.Sprintf("%s %s: %v", e.Op, path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// CorruptBinaryError reports a structurally broken binary event log.
// Offset is the byte position where decoding gave up, or -1 if unknown.
type CorruptBinaryError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *CorruptBinaryError) Error() string {
	path := e.Path
	if path == "" {
		path = "<stdin>"
	}
	if e.Offset < 0 {
		return fmt.Sprintf("corrupt binary log %s: %v", path, e.Err)
	}
	return fmt.Sprintf("corrupt binary log %s at offset %d: %v", path, e.Offset, e.Err)
}

func (e *CorruptBinaryError) Unwrap() error {
	return e.Err
}

// InvalidPatternError reports a filter line that failed to compile
type InvalidPatternError struct {
	Line    int
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern on line %d %q: %v", e.Line, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
