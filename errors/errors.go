// Package errors wraps pkg/errors and adds error codes, so callers can tell
// an invariant violation apart from an operation that is simply not handled.
package errors

import (
	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() method.
type Code string

const (
	// ErrInvalidShape marks a non-positive chunk dimension, a negative shape
	// component or mismatched arities.
	ErrInvalidShape Code = "InvalidShape"
	// ErrShapeMismatch marks a materialized row or column count that
	// disagrees with the declared shape.
	ErrShapeMismatch Code = "ShapeMismatch"
	// ErrPartitionSizeMismatch marks a partition whose row count disagrees
	// with its declared count.
	ErrPartitionSizeMismatch Code = "PartitionSizeMismatch"
	// ErrChunkShapeMismatch marks a block that does not fit the destination
	// chunk geometry.
	ErrChunkShapeMismatch Code = "ChunkShapeMismatch"
	// ErrStoreUnavailable marks a store that cannot be opened or created.
	ErrStoreUnavailable Code = "StoreUnavailable"
	// ErrUnsupportedOperation is the expected outcome for operand, axis and
	// index combinations that have no distributed strategy.
	ErrUnsupportedOperation Code = "UnsupportedOperation"

	ErrUncoded Code = "Uncoded"
)

func New(code Code, message string) error {
	return errors.WithStack(codedError{
		Code:    code,
		Message: message,
	})
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...interface{}) error {
	return New(code, errors.Errorf(format, args...).Error())
}

// WithCode attaches code to err. The returned error still unwraps to err.
func WithCode(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(codedError{
		Code:    code,
		Message: message + ": " + err.Error(),
		cause:   err,
	})
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Is is a fork of the Is() method from `pkg/errors` which takes as its target
// an error Code instead of an error.
func Is(err error, target Code) bool {
	match := codedError{
		Code: target,
	}
	return errors.Is(err, match)
}

// CodeOf returns the code of the first coded error in err's chain, or
// ErrUncoded.
func CodeOf(err error) Code {
	var ce codedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrUncoded
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, fmt string, args ...interface{}) error {
	return errors.Wrapf(err, fmt, args...)
}

// codedError is the fundamental type used by this package to provide coded
// errors.
type codedError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (ce codedError) Error() string {
	return ce.Message
}

func (ce codedError) Unwrap() error {
	return ce.cause
}

func (ce codedError) Is(err error) bool {
	if e, ok := err.(codedError); ok && ce.Code == e.Code {
		return true
	}
	return false
}
