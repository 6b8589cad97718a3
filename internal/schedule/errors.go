package schedule

import (
	"errors"
	"fmt"
)

// Kind classifies errors surfaced by the schedule subsystem.
type Kind uint8

const (
	KindUnknown Kind = iota
	InvalidDate
	InvalidDuration
	IndexOutOfRange
	PersistenceFailure
	InvalidArgument
)

func (k Kind) String() string {
	switch k {
	case InvalidDate:
		return "invalid date"
	case InvalidDuration:
		return "invalid duration"
	case IndexOutOfRange:
		return "index out of range"
	case PersistenceFailure:
		return "persistence failure"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// Error is the typed error returned at the schedule boundary.
//
// Field names the offending input (e.g. "start", "unit", "id") when known.
type Error struct {
	Kind  Kind
	Field string
	Value string
	Err   error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrInvalidDate     = &Error{Kind: InvalidDate}
	ErrInvalidDuration = &Error{Kind: InvalidDuration}
	ErrIndexOutOfRange = &Error{Kind: IndexOutOfRange}
	ErrPersistence     = &Error{Kind: PersistenceFailure}
	ErrInvalidArgument = &Error{Kind: InvalidArgument}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Value == "" && t.Err == nil
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NewError builds a typed error of the given kind.
func NewError(kind Kind, field, value string, err error) *Error {
	return &Error{Kind: kind, Field: field, Value: value, Err: err}
}

// Persistence wraps a storage error as PersistenceFailure.
// It returns nil for a nil err and leaves already-typed errors alone.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == PersistenceFailure {
		return err
	}
	return NewError(PersistenceFailure, op, "", err)
}

func outOfRange(id, n int) *Error {
	return NewError(IndexOutOfRange, "id", fmt.Sprint(id), fmt.Errorf("collection has %d entries", n))
}
