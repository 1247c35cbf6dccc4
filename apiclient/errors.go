package apiclient

import (
	"errors"
	"net/http"
)

// Error is a failed backend call. Status is 0 for network failures.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func fallbackMessage(status int) string {
	switch {
	case status == 0:
		return "Network error, check your connection and try again"
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return "Invalid request"
	case status == http.StatusUnauthorized:
		return "Your session has expired, please sign in again"
	case status == http.StatusForbidden:
		return "You are not allowed to do that"
	case status == http.StatusNotFound:
		return "Not found"
	case status == http.StatusConflict:
		return "The request conflicts with the current state"
	case status >= 500:
		return "Server error, please try again later"
	}
	return "Unexpected error"
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status of a backend error, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
