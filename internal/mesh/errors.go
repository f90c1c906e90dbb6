package mesh

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for reporting.
type Kind int

const (
	KindInternal Kind = iota
	KindIO
	KindContainer
	KindFormat
	KindDegenerate
	KindUnsupported
	KindInvalidJob
)

var kindNames = map[Kind]string{
	KindInternal:    "internal",
	KindIO:          "io",
	KindContainer:   "container",
	KindFormat:      "format",
	KindDegenerate:  "degenerate_mesh",
	KindUnsupported: "unsupported_format",
	KindInvalidJob:  "invalid_job",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure. Op names the stage that failed
// (e.g. "3mf: resources"), Msg is the short reason.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Sentinels for errors.Is. ErrDegenerate also matches ErrFormat.
var (
	ErrInternal    = &Error{Kind: KindInternal}
	ErrIO          = &Error{Kind: KindIO}
	ErrContainer   = &Error{Kind: KindContainer}
	ErrFormat      = &Error{Kind: KindFormat}
	ErrDegenerate  = &Error{Kind: KindDegenerate}
	ErrUnsupported = &Error{Kind: KindUnsupported}
	ErrInvalidJob  = &Error{Kind: KindInvalidJob}
)

// NewError returns a classified error without an underlying cause.
func NewError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// WrapError classifies err. The message of err is kept in the chain.
func WrapError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// FormatError is shorthand for NewError(KindFormat, op, fmt.Sprintf(format, args...)).
func FormatError(op, format string, args ...any) *Error {
	return NewError(KindFormat, op, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	s := e.Op
	if e.Msg != "" {
		if s != "" {
			s += ": "
		}
		s += e.Msg
	}
	if e.Err != nil {
		if s != "" {
			s += ": "
		}
		s += e.Err.Error()
	}
	if s == "" {
		return e.Kind.String() + " error"
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Msg != "" || t.Err != nil {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindFormat && e.Kind == KindDegenerate
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
