package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/logger"
	"github.com/linkmarket/backend/internal/interfaces/http/dto"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// ServiceUnavailable sends a 503 response
func (h *BaseHandler) ServiceUnavailable(c *gin.Context, message string) {
	h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 response listing the invalid fields
func (h *BaseHandler) ValidationError(c *gin.Context, details map[string]string) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// BindJSON binds the request body and writes the error response on failure
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.bindError(c, err, "Invalid request body")
		return false
	}
	return true
}

// BindQuery binds query parameters and writes the error response on failure
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.bindError(c, err, "Invalid query parameters")
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error, fallback string) {
	if details, ok := middleware.ValidationDetails(err); ok {
		h.ValidationError(c, details)
		return
	}
	h.BadRequest(c, fallback)
}

// ParseUUIDParam reads a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ValidationError(c, map[string]string{name: "must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUserID returns the authenticated user, answering 401 when absent
func (h *BaseHandler) CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetJWTUserID(c)
	if id == uuid.Nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// IsAdmin reports whether the caller carries the admin role
func (h *BaseHandler) IsAdmin(c *gin.Context) bool {
	return middleware.GetJWTRole(c) == "admin"
}

// Paginated writes a page of items with its meta block
func Paginated[T any](h *BaseHandler, c *gin.Context, page shared.Paginated[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}

// HandleError converts application errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed", zap.String("reason", domainErr.Code), zap.Error(err))
		}
		resp := dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
		if code != domainErr.Code {
			resp.Error.Reason = domainErr.Code
		}
		resp.Error.Details = domainErr.Details
		c.JSON(status, resp)
		return
	}

	var payErr *payment.Error
	if errors.As(err, &payErr) {
		logger.GetGinLogger(c).Warn("Payment failed",
			zap.String("category", string(payErr.Category)),
			zap.String("code", payErr.Code),
			zap.String("decline_code", payErr.DeclineCode),
			zap.Error(err))
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodePayment, payErr.UserMessage(), requestID)
		resp.Error.Category = string(payErr.Category)
		resp.Error.Reason = payErr.Code
		c.JSON(paymentStatus(payErr.Category), resp)
		return
	}

	switch {
	case errors.Is(err, payment.ErrGatewayNotEnabled):
		h.ServiceUnavailable(c, "Card payments are not available")
		return
	case errors.Is(err, payment.ErrNothingToRefund):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeBusinessRule, "Order has no captured payment to refund")
		return
	case errors.Is(err, payment.ErrSessionNotFound):
		h.NotFound(c, "Payment session not found")
		return
	}

	logger.GetGinLogger(c).Error("Unhandled error", zap.Error(err))
	h.InternalError(c, "An internal error occurred")
}

func paymentStatus(category payment.ErrorCategory) int {
	switch category {
	case payment.CategoryRetryRecommended:
		return http.StatusServiceUnavailable
	case payment.CategorySystemIssue:
		return http.StatusBadGateway
	default:
		return http.StatusPaymentRequired
	}
}
