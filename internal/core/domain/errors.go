package domain

import "errors"

// Error kinds. Every handler-level failure maps to exactly one of these;
// anything else is an internal error.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("validation error")
)

// Account errors
var (
	ErrAccountNotFound   = kind(ErrNotFound, "account not found")
	ErrRoleNotAssignable = kind(ErrForbidden, "role cannot be self-assigned")
)

// Catalog errors
var (
	ErrProductNotFound = kind(ErrNotFound, "loan product not found")
)

// Loan application errors
var (
	ErrApplicationNotFound = kind(ErrNotFound, "loan application not found")
	ErrNotOwner            = kind(ErrForbidden, "loan application belongs to another account")
	ErrNotPending          = kind(ErrInvalidTransition, "loan application is not pending")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func kind(k error, msg string) error {
	return &kindError{kind: k, msg: msg}
}
