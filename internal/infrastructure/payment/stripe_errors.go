package payment

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/stripe/stripe-go/v81"
)

// declines that point at fraud or a blocked card; the buyer cannot fix these alone
var supportDeclineCodes = map[string]bool{
	"fraudulent":         true,
	"lost_card":          true,
	"stolen_card":        true,
	"pickup_card":        true,
	"restricted_card":    true,
	"security_violation": true,
	"merchant_blacklist": true,
}

var retryableCodes = map[string]bool{
	"processing_error":     true,
	"rate_limit":           true,
	"lock_timeout":         true,
	"api_connection_error": true,
}

var buyerMessages = map[string]string{
	"card_declined":      "Your card was declined. Please use a different card.",
	"expired_card":       "Your card has expired. Please use a different card.",
	"incorrect_cvc":      "The card's security code is incorrect.",
	"incorrect_number":   "The card number is incorrect.",
	"insufficient_funds": "Your card has insufficient funds.",
}

// ClassifyError turns any error returned by stripe-go into a categorised payment.Error.
// Errors that already carry a category pass through unchanged.
func ClassifyError(err error) *payment.Error {
	if err == nil {
		return nil
	}
	var pe *payment.Error
	if errors.As(err, &pe) {
		return pe
	}

	var se *stripe.Error
	if errors.As(err, &se) {
		return classifyStripeError(se, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return payment.NewError(payment.CategoryRetryRecommended, "timeout", "", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return payment.NewError(payment.CategoryRetryRecommended, "api_connection_error", "", err)
	}
	return payment.NewError(payment.CategoryContactSupport, "unknown", "", err)
}

func classifyStripeError(se *stripe.Error, err error) *payment.Error {
	code := string(se.Code)
	decline := string(se.DeclineCode)

	newErr := func(category payment.ErrorCategory, message string) *payment.Error {
		if code == "" {
			code = string(se.Type)
		}
		pe := payment.NewError(category, code, message, err)
		pe.DeclineCode = decline
		return pe
	}

	switch {
	case se.Type == stripe.ErrorTypeCard && supportDeclineCodes[decline]:
		return newErr(payment.CategoryContactSupport, "")
	case retryableCodes[code]:
		return newErr(payment.CategoryRetryRecommended, "")
	case se.Type == stripe.ErrorTypeCard:
		msg := buyerMessages[code]
		if msg == "" {
			msg = se.Msg
		}
		return newErr(payment.CategoryUserActionRequired, msg)
	case se.HTTPStatusCode == http.StatusTooManyRequests || se.HTTPStatusCode >= 500:
		return newErr(payment.CategoryRetryRecommended, "")
	case se.Type == "authentication_error" || se.Type == "permission_error" || se.Type == stripe.ErrorTypeInvalidRequest:
		return newErr(payment.CategorySystemIssue, se.Msg)
	case se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500:
		return newErr(payment.CategorySystemIssue, se.Msg)
	}
	return newErr(payment.CategoryContactSupport, "")
}
