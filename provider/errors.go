package provider

import (
	"errors"
	"fmt"
)

var (
	ErrCancelled    = errors.New("provider: sign-in cancelled")
	ErrPopupBlocked = errors.New("provider: sign-in popup blocked")
)

// CodeError carries any other provider error code, e.g. "auth/network-request-failed".
type CodeError struct {
	Code string
	Err  error
}

func (e *CodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider: %s: %v", e.Code, e.Err)
	}
	return "provider: " + e.Code
}

func (e *CodeError) Unwrap() error { return e.Err }

func ErrorFromCode(code string) error {
	switch code {
	case "auth/popup-closed-by-user", "auth/cancelled-popup-request", "auth/user-cancelled":
		return ErrCancelled
	case "auth/popup-blocked":
		return ErrPopupBlocked
	}
	return &CodeError{Code: code}
}

// Message maps provider errors to what the sign-in screen shows.
func Message(err error) string {
	var ce *CodeError
	switch {
	case errors.Is(err, ErrCancelled):
		return "Sign-in was cancelled"
	case errors.Is(err, ErrPopupBlocked):
		return "The sign-in window was blocked by the browser. Allow pop-ups for this site and try again"
	case errors.As(err, &ce):
		return "Could not sign in with the provider (" + ce.Code + ")"
	}
	return "Could not sign in with the provider"
}
