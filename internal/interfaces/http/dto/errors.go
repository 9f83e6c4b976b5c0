package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in the response envelope.
// Format: ERR_<CATEGORY>
const (
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeBadRequest         = "ERR_BAD_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeBusinessRule       = "ERR_BUSINESS_RULE"
	ErrCodePayment            = "ERR_PAYMENT"
	ErrCodeRateLimited        = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodePayment:            http.StatusPaymentRequired,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodeMapping covers domain codes whose category cannot be read off the name
var domainCodeMapping = map[string]string{
	"NOT_FOUND":                 ErrCodeNotFound,
	"ALREADY_EXISTS":            ErrCodeConflict,
	"EMAIL_TAKEN":               ErrCodeConflict,
	"DOMAIN_TAKEN":              ErrCodeConflict,
	"CART_DUPLICATE_ITEM":       ErrCodeConflict,
	"CONCURRENCY_CONFLICT":      ErrCodeConflict,
	"CONCURRENT_MODIFICATION":   ErrCodeConflict,
	"OPTIMISTIC_LOCK_FAILED":    ErrCodeConflict,
	"VERSION_CONFLICT":          ErrCodeConflict,
	"INVALID_INPUT":             ErrCodeValidation,
	"STEP_INCOMPLETE":           ErrCodeValidation,
	"INVALID_STATE":             ErrCodeInvalidState,
	"INVALID_STATUS_TRANSITION": ErrCodeInvalidState,
	"INVALID_ITEM_TRANSITION":   ErrCodeInvalidState,
	"ITEM_NOT_ACTIONABLE":       ErrCodeInvalidState,
	"ORDER_NOT_CANCELLABLE":     ErrCodeInvalidState,
	"SESSION_CLOSED":            ErrCodeInvalidState,
	"SESSION_EXPIRED":           ErrCodeInvalidState,
	"CART_READ_ONLY":            ErrCodeInvalidState,
	"UNAUTHORIZED":              ErrCodeUnauthorized,
	"INVALID_CREDENTIALS":       ErrCodeUnauthorized,
	"TOKEN_EXPIRED":             ErrCodeTokenExpired,
	"FORBIDDEN":                 ErrCodeForbidden,
	"ACCOUNT_SUSPENDED":         ErrCodeForbidden,
	"ROLE_NOT_ALLOWED":          ErrCodeForbidden,
	"CANNOT_SUSPEND_ADMIN":      ErrCodeForbidden,
	"CANNOT_CHANGE_OWN_STATUS":  ErrCodeForbidden,
	"UPLOADS_DISABLED":          ErrCodeServiceUnavailable,
	"INTERNAL_ERROR":            ErrCodeInternal,
	"PASSWORD_HASH_ERROR":       ErrCodeInternal,
	"TOKEN_ERROR":               ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to an envelope code.
// Codes already in the ERR_ format are returned unchanged; any other domain
// code is a business rule violation unless its name says otherwise.
func NormalizeErrorCode(code string) string {
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if mapped, ok := domainCodeMapping[code]; ok {
		return mapped
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "TOKEN_"):
		return ErrCodeUnauthorized
	case strings.HasPrefix(code, "INVALID_"):
		return ErrCodeValidation
	}
	return ErrCodeBusinessRule
}
