package payment

import (
	"errors"
	"fmt"
)

// Error is a categorised payment failure
type Error struct {
	Category    ErrorCategory
	Code        string
	Message     string
	DeclineCode string
	Err         error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Category.Message()
	}
	if e.Code != "" {
		return fmt.Sprintf("payment %s (%s): %s", e.Category, e.Code, msg)
	}
	return fmt.Sprintf("payment %s: %s", e.Category, msg)
}

// Unwrap returns the underlying gateway error
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text safe to show to the buyer
func (e *Error) UserMessage() string {
	if e.Category == CategoryUserActionRequired && e.Message != "" {
		return e.Message
	}
	return e.Category.Message()
}

// NewError creates a categorised payment error
func NewError(category ErrorCategory, code, message string, err error) *Error {
	return &Error{Category: category, Code: code, Message: message, Err: err}
}

// CategoryOf extracts the category from an error chain; unknown errors need support
func CategoryOf(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryContactSupport
}

var (
	ErrInvalidSignature    = errors.New("payment: invalid webhook signature")
	ErrGatewayNotEnabled   = errors.New("payment: gateway not enabled")
	ErrSessionNotFound     = errors.New("payment: checkout session not found")
	ErrNothingToRefund     = errors.New("payment: order has no captured payment to refund")
	ErrAlreadyProcessed    = errors.New("payment: webhook event already processed")
	ErrMissingOrderContext = errors.New("payment: webhook payload does not reference an order")
)
