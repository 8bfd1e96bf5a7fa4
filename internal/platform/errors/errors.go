// Package errors is the project error type: a code that decides how the batch loop
// and the API react, a message, an optional offending field and the wrapped cause.
// Import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
)

// Error carries a code, a message and optionally a field and a cause
type Error struct {
	code  ErrorCode
	msg   string
	field string
	orig  error
}

// Wire is the JSON form of an error in API envelopes and result records
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.orig == nil:
		return e.msg
	}
	return e.msg + ": " + e.orig.Error()
}

func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending input field, if any
func (e *Error) Field() string { return e.field }

// Message returns the message without the wrapped cause
func (e *Error) Message() string { return e.msg }

// As returns the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf is the code of the outermost *Error in err's chain, or ErrorCodeUnknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// WireFrom converts any error to its wire form. nil gives the zero Wire
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	w := Wire{Code: CodeOf(err), Message: err.Error()}
	if e, ok := As(err); ok {
		w.Field = e.field
	}
	return w
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		next := stderrs.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err
}

// WithField returns a copy of err's outermost *Error naming the offending field.
// Foreign errors come back unchanged
func WithField(err error, field string) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	c.field = field
	return &c
}

func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap attaches a code and message to orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf is Wrap with a formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return Wrap(orig, code, fmt.Sprintf(format, a...))
}

// Validationf rejects the polygon being processed
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// Processingf rejects the polygon being processed
func Processingf(format string, a ...any) error { return Newf(ErrorCodeProcessing, format, a...) }

// IOf aborts the run
func IOf(format string, a ...any) error { return Newf(ErrorCodeIO, format, a...) }

// Configf aborts the run
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfig, format, a...) }

func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }
