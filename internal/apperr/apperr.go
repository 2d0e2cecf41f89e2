// Package apperr classifies the failures that cross the pipeline
// boundary so callers can map them to user-facing behavior.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrProvider marks a failed LLM provider request.
	ErrProvider = errors.New("provider request failed")

	// ErrGitHub marks a failed GitHub REST or GraphQL request.
	ErrGitHub = errors.New("github request failed")

	// ErrAuth marks a rejected or missing credential. Callers surface
	// "please log in again" and drop the stale credential.
	ErrAuth = errors.New("authentication failed")

	// ErrCrypto marks a stored token that could not be decoded. Treated
	// the same as ErrAuth: implicit logout, never a crash.
	ErrCrypto = errors.New("credential decoding failed")
)

// Error pairs an error kind with detail. Use errors.Is against the
// sentinel kinds above to classify.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// Validationf builds an ErrValidation error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Providerf builds an ErrProvider error.
func Providerf(format string, args ...any) error {
	return &Error{Kind: ErrProvider, Msg: fmt.Sprintf(format, args...)}
}

// GitHubf builds an ErrGitHub error.
func GitHubf(format string, args ...any) error {
	return &Error{Kind: ErrGitHub, Msg: fmt.Sprintf(format, args...)}
}

// Authf builds an ErrAuth error.
func Authf(format string, args ...any) error {
	return &Error{Kind: ErrAuth, Msg: fmt.Sprintf(format, args...)}
}

// Cryptof builds an ErrCrypto error.
func Cryptof(format string, args ...any) error {
	return &Error{Kind: ErrCrypto, Msg: fmt.Sprintf(format, args...)}
}
