package store

import (
	"errors"

	"handlemock/internal/domain"
)

// Sentinel errors. Every error returned by Store wraps one of these in a
// *HandleError.
var (
	ErrPrefixNotFound = errors.New("prefix not found")
	ErrHandleNotFound = errors.New("handle not found")
	ErrAlreadyExists  = errors.New("handle already exists")
	ErrProtocol       = errors.New("protocol error")
)

// Kind classifies the outcome of a store operation.
type Kind int

const (
	KindSuccess Kind = iota
	KindCreated
	KindUpdated
	KindNotFoundPrefix
	KindNotFoundSuffix
	KindAlreadyExists
	KindProtocolError
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindCreated:
		return "created"
	case KindUpdated:
		return "updated"
	case KindNotFoundPrefix:
		return "not_found_prefix"
	case KindNotFoundSuffix:
		return "not_found_suffix"
	case KindAlreadyExists:
		return "already_exists"
	case KindProtocolError:
		return "protocol_error"
	default:
		return "internal"
	}
}

// OK reports whether the kind is a successful outcome
func (k Kind) OK() bool {
	return k == KindSuccess || k == KindCreated || k == KindUpdated
}

// HandleError carries the failing operation and handle alongside the kind.
type HandleError struct {
	Op     string
	Prefix string
	Suffix string
	Err    error
}

func (e *HandleError) Error() string {
	if e.Suffix == "" {
		return e.Op + " " + e.Prefix + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Handle() + ": " + e.Err.Error()
}

func (e *HandleError) Unwrap() error {
	return e.Err
}

// Handle returns the handle the operation targeted.
func (e *HandleError) Handle() string {
	if e.Suffix == "" {
		return e.Prefix
	}
	return domain.HandleName(e.Prefix, e.Suffix)
}

// KindOf maps an error returned by Store to its Kind. A nil error is
// KindSuccess.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindSuccess
	case errors.Is(err, ErrPrefixNotFound):
		return KindNotFoundPrefix
	case errors.Is(err, ErrHandleNotFound):
		return KindNotFoundSuffix
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrProtocol):
		return KindProtocolError
	default:
		return KindInternal
	}
}

func newError(op, prefix, suffix string, err error) error {
	return &HandleError{Op: op, Prefix: prefix, Suffix: suffix, Err: err}
}
