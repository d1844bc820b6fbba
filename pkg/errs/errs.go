// Package errs defines the error kinds surfaced by tmagick.
//
// Every error that reaches the command line carries one Kind. The kind never
// changes how the error is handled (all errors end the run with exit code 1),
// but it lets tests and callers tell a bad flag from an unreadable file.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error.
type Kind int

const (
	// Unknown is the kind of errors that did not originate in tmagick.
	Unknown Kind = iota
	// InvalidArgument covers malformed geometry, unknown gravity tokens,
	// conflicting flags and malformed colors.
	InvalidArgument
	// DecodeFailure means a primary or secondary image could not be read.
	DecodeFailure
	// InvalidGeometry means resolved dimensions are non-positive or
	// otherwise unrepresentable.
	InvalidGeometry
	// EncodeFailure means the destination is unwritable or the format is
	// unsupported.
	EncodeFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case DecodeFailure:
		return "decode failure"
	case InvalidGeometry:
		return "invalid geometry"
	case EncodeFailure:
		return "encode failure"
	default:
		return "unknown error"
	}
}

// Error is a classified error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of kind k with a formatted message.
func New(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

// Wrap annotates err with msg and classifies it as k. A nil err yields nil.
func Wrap(k Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: errors.WithMessage(err, msg)}
}

// Wrapf is Wrap with a format string.
func Wrapf(k Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: errors.WithMessagef(err, format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is classified as k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
