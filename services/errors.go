package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/provider"
)

// precondition failures, always detected before any backend call
var (
	ErrNotAuthenticated   = errors.New("you need to sign in first")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrNotInCart          = errors.New("that product is not in your cart")
	ErrInvalidProduct     = errors.New("product is missing an id or has a negative price")
	ErrProductUnavailable = errors.New("that product is not available today")
	ErrWrongStep          = errors.New("that action is not available at this checkout step")
	ErrSubmissionInFlight = errors.New("your order is already being submitted")
	ErrCheckoutClosed     = errors.New("checkout was closed before the order finished")
	ErrNotCancellable     = errors.New("only pending orders can be cancelled")
	ErrOrderNotFound      = errors.New("order not found")
)

// ValidationError carries field-level messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ProviderError wraps an identity-provider failure with its curated message.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return provider.Message(e.Err) }

func (e *ProviderError) Unwrap() error { return e.Err }
