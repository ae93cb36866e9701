// Package errors provides the structured error type used across the
// disaggregation toolkit. Every failure that reaches the CLI carries an
// error code, a human-readable message and, where applicable, the input
// file and line that caused it.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. Configuration errors come from settings and
// schema problems, data errors from invalid values inside otherwise
// well-formed inputs, parse errors from malformed files.
type Kind string

const (
	KindConfig Kind = "config"
	KindData   Kind = "data"
	KindParse  Kind = "parse"
)

// Error represents a structured failure of a disaggregation run.
type Error struct {
	Kind    Kind        `json:"kind"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	File    string      `json:"file,omitempty"`
	Line    int         `json:"line,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	switch {
	case e.File != "" && e.Line > 0:
		msg = fmt.Sprintf("%s (in %s, line %d)", msg, e.File, e.Line)
	case e.File != "":
		msg = fmt.Sprintf("%s (in %s)", msg, e.File)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two structured errors by kind and code, so predefined error
// values can be used as targets.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New creates a new structured error with the given parameters.
func New(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Newf creates a new structured error with a formatted message.
func Newf(kind Kind, code, format string, args ...interface{}) *Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// NewWithDetails creates a new structured error with additional details.
func NewWithDetails(kind Kind, code, message string, details interface{}) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap attaches a cause to a new structured error.
func Wrap(err error, kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// At returns a copy of the error annotated with a source location. The
// receiver is not modified, so predefined error values stay reusable.
func (e *Error) At(file string, line int) *Error {
	c := *e
	c.File = file
	c.Line = line
	return &c
}

// In returns a copy of the error annotated with a file only.
func (e *Error) In(file string) *Error {
	c := *e
	c.File = file
	return &c
}

// IsKind reports whether err is a structured error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// As is a convenience re-export so callers do not need to import both
// this package and the standard library one.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is re-exports the standard library matcher.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
