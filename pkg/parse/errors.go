// Package parse provides the shared line-oriented parsing infrastructure used
// by the report readers: the error taxonomy, fallible numeric parsing, a
// line scanner with position tracking, and compressed-stream sniffing.
package parse

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error in this package unwraps to one of them so
// callers can classify failures with errors.Is.
var (
	ErrFormat           = errors.New("parse: malformed input")
	ErrNumber           = errors.New("parse: invalid number")
	ErrMissingReference = errors.New("parse: missing reference")
)

// FormatError reports input that does not follow the expected grammar.
type FormatError struct {
	Source string // file or stream name
	Line   int    // 1-based line number, 0 when not tied to a line
	Msg    string
	Err    error // optional cause, e.g. layout.ErrInvalidOrientation
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

// Unwrap returns ErrFormat and the cause, if any.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// Formatf builds a FormatError.
func Formatf(source string, line int, format string, args ...any) *FormatError {
	return &FormatError{Source: source, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// WrapFormat turns err into a FormatError at the given position.
func WrapFormat(source string, line int, err error) *FormatError {
	return &FormatError{Source: source, Line: line, Msg: err.Error(), Err: err}
}

// NumberError reports a token that should have been numeric.
type NumberError struct {
	Source string
	Line   int
	Token  string
	Err    error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("%s:%d: invalid number %q: %v", e.Source, e.Line, e.Token, e.Err)
}

// Is matches ErrNumber.
func (e *NumberError) Is(target error) bool { return target == ErrNumber }

// Unwrap returns the underlying strconv error.
func (e *NumberError) Unwrap() error { return e.Err }

// MissingReferenceError reports a lookup into a previously parsed mapping
// that did not contain the requested key.
type MissingReferenceError struct {
	Kind   string // "net", "instance", "timing window", "macro"
	Key    string
	Source string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s: unknown %s %q", e.Source, e.Kind, e.Key)
}

// Unwrap returns ErrMissingReference.
func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }

// MissingRef builds a MissingReferenceError.
func MissingRef(source, kind, key string) *MissingReferenceError {
	return &MissingReferenceError{Kind: kind, Key: key, Source: source}
}
