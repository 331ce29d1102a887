// Package apperror carries the request failure taxonomy shared by services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindAuthFailure   Kind = "auth_failure"
	KindValidation    Kind = "validation"
	KindProvider      Kind = "provider_error"
	KindPartialDelete Kind = "partial_delete"
	KindInternal      Kind = "internal"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against the sentinel values below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrNotFound      = &AppError{Kind: KindNotFound}
	ErrConflict      = &AppError{Kind: KindConflict}
	ErrAuthFailure   = &AppError{Kind: KindAuthFailure}
	ErrValidation    = &AppError{Kind: KindValidation}
	ErrProvider      = &AppError{Kind: KindProvider}
	ErrPartialDelete = &AppError{Kind: KindPartialDelete}
)

func NotFound(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Conflict(message string) error {
	return &AppError{Kind: KindConflict, Message: message}
}

func AuthFailure(message string) error {
	return &AppError{Kind: KindAuthFailure, Message: message}
}

func Validation(message string) error {
	return &AppError{Kind: KindValidation, Message: message}
}

func Provider(message string, err error) error {
	return &AppError{Kind: KindProvider, Message: message, Err: err}
}

func PartialDelete(message string, err error) error {
	return &AppError{Kind: KindPartialDelete, Message: message, Err: err}
}

func Internal(message string, err error) error {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the taxonomy kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
