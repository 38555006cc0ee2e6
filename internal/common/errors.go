// Package common defines the closed set of domain errors shared by the
// services, the session layer and the dispatch router. Callers should use
// errors.Is to match these values; services wrap them with context.
package common

import (
	"errors"
	"fmt"
)

var (
	// Message-shape errors.
	ErrValidation = errors.New("invalid message")

	// Handshake errors.
	ErrNotAuthenticated   = errors.New("you must authenticate before performing any other operations")
	ErrInvalidCredentials = errors.New("invalid access key/display name pair")
	ErrDuplicateIdentity  = errors.New("account already exists")

	// Authorization and lookup errors.
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrIllegalState     = errors.New("illegal state")

	// ErrInternal is never shown with details to a client.
	ErrInternal = errors.New("internal error")
)

var domainErrors = []error{
	ErrValidation,
	ErrNotAuthenticated,
	ErrInvalidCredentials,
	ErrDuplicateIdentity,
	ErrPermissionDenied,
	ErrNotFound,
	ErrIllegalState,
}

// IsDomain reports whether err belongs to the domain taxonomy, i.e. whether
// its message is meant for the client.
func IsDomain(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type detailed struct {
	kind error
	msg  string
}

func (e *detailed) Error() string { return e.msg }
func (e *detailed) Unwrap() error { return e.kind }

// Errorf returns an error matching kind under errors.Is whose message is
// only the formatted detail, e.g. Errorf(ErrIllegalState, "already a member").
func Errorf(kind error, format string, args ...any) error {
	return &detailed{kind: kind, msg: fmt.Sprintf(format, args...)}
}
