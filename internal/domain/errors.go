package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for every outcome a control operation can report.
// Errors returned by the registry wrap one of these with a description.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrWrongBrickKind  = errors.New("wrong brick kind")
	ErrCapability      = errors.New("capability error")
	ErrInternal        = errors.New("internal error")
)

// ErrorClass groups errors by how a transport should surface them
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassNotFound
	ClassAlreadyExists
	ClassInvalidArgument
	ClassWrongBrickKind
	ClassCapability
	ClassInternal
)

// String returns the string representation of ErrorClass
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassNotFound:
		return "not_found"
	case ClassAlreadyExists:
		return "already_exists"
	case ClassInvalidArgument:
		return "invalid_argument"
	case ClassWrongBrickKind:
		return "wrong_brick_kind"
	case ClassCapability:
		return "capability"
	case ClassInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classify returns the class of err. Unrecognized errors are internal.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ClassAlreadyExists
	case errors.Is(err, ErrInvalidArgument):
		return ClassInvalidArgument
	case errors.Is(err, ErrWrongBrickKind):
		return ClassWrongBrickKind
	case errors.Is(err, ErrCapability):
		return ClassCapability
	default:
		return ClassInternal
	}
}

// Describe returns the client-facing description of err.
// For wrapped sentinels this is the text in front of the sentinel, so
// "brick already exists" rather than "already exists: brick already exists".
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var d *describedError
	if errors.As(err, &d) {
		return d.desc
	}
	return err.Error()
}

// describedError pairs a sentinel with the exact description surfaced to clients
type describedError struct {
	sentinel error
	desc     string
}

func (e *describedError) Error() string { return e.desc }

func (e *describedError) Unwrap() error { return e.sentinel }

// NewError returns an error that matches sentinel with errors.Is and whose
// message is exactly desc.
func NewError(sentinel error, desc string) error {
	return &describedError{sentinel: sentinel, desc: desc}
}

// Prefix prepends prefix to the description of err and keeps its class
func Prefix(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var d *describedError
	if errors.As(err, &d) {
		return &describedError{sentinel: d.sentinel, desc: prefix + ": " + d.desc}
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
