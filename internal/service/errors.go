package service

import (
	"context"
	"errors"
	"net/http"

	"notely-be/pkg/llm"
)

// serviceError carries the HTTP status the error handler should use.
type serviceError struct {
	status int
	code   string
	msg    string
}

func (e *serviceError) Error() string   { return e.msg }
func (e *serviceError) StatusCode() int { return e.status }

func (e *serviceError) ErrorCode() string {
	if e.code == "" {
		return e.msg
	}
	return e.code
}

var (
	ErrNotFound           = &serviceError{status: http.StatusNotFound, msg: "resource not found"}
	ErrNoteNotFound       = &serviceError{status: http.StatusNotFound, msg: "note not found"}
	ErrTagNotFound        = &serviceError{status: http.StatusNotFound, msg: "tag not found"}
	ErrUserNotFound       = &serviceError{status: http.StatusNotFound, msg: "user not found"}
	ErrForbidden          = &serviceError{status: http.StatusForbidden, msg: "forbidden"}
	ErrEmailTaken         = &serviceError{status: http.StatusConflict, msg: "email already registered"}
	ErrTagExists          = &serviceError{status: http.StatusConflict, msg: "tag already exists"}
	ErrInvalidCredentials = &serviceError{status: http.StatusUnauthorized, msg: "invalid email or password"}
	ErrVersionConflict    = &serviceError{status: http.StatusConflict, msg: "note was changed on another device, pull before saving"}

	ErrShareNotFound         = &serviceError{status: http.StatusNotFound, msg: "share link not found"}
	ErrShareExpired          = &serviceError{status: http.StatusGone, msg: "share link has expired"}
	ErrSharePasswordRequired = &serviceError{status: http.StatusUnauthorized, code: "PASSWORD_REQUIRED", msg: "this note is password protected"}
	ErrSharePasswordInvalid  = &serviceError{status: http.StatusUnauthorized, code: "PASSWORD_INVALID", msg: "wrong password"}

	ErrSessionNotFound = &serviceError{status: http.StatusNotFound, msg: "editing session not found or expired"}
	ErrSectionNotFound = &serviceError{status: http.StatusNotFound, msg: "section not found"}

	ErrAPIKeyRequired    = &serviceError{status: http.StatusForbidden, code: "API_KEY_REQUIRED", msg: "Add your AI provider API key in settings to use AI features."}
	ErrInvalidAIResponse = &serviceError{status: http.StatusBadGateway, msg: "invalid response format"}
	ErrInvalidTarget     = &serviceError{status: http.StatusBadRequest, msg: "invalid language or tone"}
)

// ProviderError is a transient failure of the AI provider. The provider's
// message is passed through to the client.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string   { return e.Err.Error() }
func (e *ProviderError) Unwrap() error   { return e.Err }
func (e *ProviderError) StatusCode() int { return http.StatusBadGateway }

// providerFailure classifies an error coming back from the fallback runner.
func providerFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, ErrInvalidAIResponse), errors.Is(err, ErrAPIKeyRequired):
		return unwrapPermanent(err)
	default:
		return &ProviderError{Err: err}
	}
}

func unwrapPermanent(err error) error {
	var p *llm.Permanent
	if errors.As(err, &p) {
		return p.Err
	}
	return err
}
