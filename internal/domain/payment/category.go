package payment

// ErrorCategory tells the caller what to do about a failed payment operation
type ErrorCategory string

const (
	// CategoryUserActionRequired means the buyer must fix something (card, details) and try again
	CategoryUserActionRequired ErrorCategory = "user_action_required"
	// CategoryRetryRecommended means the failure is transient and the same request may succeed later
	CategoryRetryRecommended ErrorCategory = "retry_recommended"
	// CategorySystemIssue means our integration is misconfigured or sent a bad request
	CategorySystemIssue ErrorCategory = "system_issue"
	// CategoryContactSupport means a human has to look at it
	CategoryContactSupport ErrorCategory = "contact_support"
)

var categoryMessages = map[ErrorCategory]string{
	CategoryUserActionRequired: "Your payment could not be completed. Please check your payment details or use a different card.",
	CategoryRetryRecommended:   "The payment service is temporarily unavailable. Please try again in a few moments.",
	CategorySystemIssue:        "We could not process your payment because of a problem on our side. Our team has been notified.",
	CategoryContactSupport:     "Your payment could not be processed. Please contact support so we can help you complete the order.",
}

// IsValid checks if the category is known
func (c ErrorCategory) IsValid() bool {
	_, ok := categoryMessages[c]
	return ok
}

// String returns the string representation
func (c ErrorCategory) String() string {
	return string(c)
}

// Message is the user-facing, actionable text for the category
func (c ErrorCategory) Message() string {
	if msg, ok := categoryMessages[c]; ok {
		return msg
	}
	return categoryMessages[CategoryContactSupport]
}

// Retryable reports whether repeating the same request may succeed
func (c ErrorCategory) Retryable() bool {
	return c == CategoryRetryRecommended
}
