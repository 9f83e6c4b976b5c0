package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/cart"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/payment"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCode     string
		wantReason   string
		wantCategory string
	}{
		{
			name:       "not found suffix",
			err:        cart.ErrItemNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
			wantReason: "CART_ITEM_NOT_FOUND",
		},
		{
			name:       "business rule keeps domain reason",
			err:        cart.ErrCartLimitReached,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeBusinessRule,
			wantReason: "CART_LIMIT_REACHED",
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("add item: %w", cart.ErrDuplicateItem),
			wantStatus: http.StatusConflict,
			wantCode:   dto.ErrCodeConflict,
			wantReason: "CART_DUPLICATE_ITEM",
		},
		{
			name:         "payment declined",
			err:          payment.NewError(payment.CategoryUserActionRequired, "card_declined", "Your card was declined.", nil),
			wantStatus:   http.StatusPaymentRequired,
			wantCode:     dto.ErrCodePayment,
			wantReason:   "card_declined",
			wantCategory: "user_action_required",
		},
		{
			name:         "payment gateway busy",
			err:          payment.NewError(payment.CategoryRetryRecommended, "rate_limit", "", nil),
			wantStatus:   http.StatusServiceUnavailable,
			wantCode:     dto.ErrCodePayment,
			wantReason:   "rate_limit",
			wantCategory: "retry_recommended",
		},
		{
			name:         "payment system issue",
			err:          payment.NewError(payment.CategorySystemIssue, "api_error", "", nil),
			wantStatus:   http.StatusBadGateway,
			wantCode:     dto.ErrCodePayment,
			wantReason:   "api_error",
			wantCategory: "system_issue",
		},
		{
			name:       "gateway disabled",
			err:        payment.ErrGatewayNotEnabled,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrCodeServiceUnavailable,
		},
		{
			name:       "nothing to refund",
			err:        payment.ErrNothingToRefund,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeBusinessRule,
		},
		{
			name:       "unknown error",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := newTestEngine()
			r.GET("/test", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(r, http.MethodGet, "/test", nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			env := decode(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			assert.Equal(t, tt.wantReason, env.Error.Reason)
			assert.Equal(t, tt.wantCategory, env.Error.Category)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorDetails(t *testing.T) {
	h := &BaseHandler{}
	r := newTestEngine()
	r.GET("/test", func(c *gin.Context) {
		h.HandleError(c, checkout.ErrStepIncomplete.WithDetails(map[string]string{"billing.email": "required"}))
	})

	w := doJSON(r, http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	assert.Equal(t, "STEP_INCOMPLETE", env.Error.Reason)
	assert.Equal(t, map[string]string{"billing.email": "required"}, env.Error.Details)
}

func TestBaseHandler_PaymentUserMessage(t *testing.T) {
	h := &BaseHandler{}
	r := newTestEngine()
	r.GET("/test", func(c *gin.Context) {
		h.HandleError(c, payment.NewError(payment.CategorySystemIssue, "api_error", "stripe internal detail", nil))
	})

	env := decode(t, doJSON(r, http.MethodGet, "/test", nil))
	assert.NotContains(t, env.Error.Message, "stripe internal detail")
	assert.Equal(t, payment.CategorySystemIssue.Message(), env.Error.Message)
}

func TestBaseHandler_Binding(t *testing.T) {
	type body struct {
		Email string `json:"email" binding:"required,email"`
	}
	h := &BaseHandler{}
	r := newTestEngine()
	r.POST("/test", func(c *gin.Context) {
		var b body
		if !h.BindJSON(c, &b) {
			return
		}
		h.Success(c, b)
	})

	t.Run("validation error lists fields", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/test", map[string]string{"email": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		assert.Contains(t, env.Error.Details, "email")
	})

	t.Run("malformed json", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/test", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
	})

	t.Run("valid", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/test", map[string]string{"email": "a@example.com"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBaseHandler_ParamsAndIdentity(t *testing.T) {
	h := &BaseHandler{}
	r := newTestEngine()
	r.GET("/anon/:id", func(c *gin.Context) {
		if _, ok := h.CurrentUserID(c); ok {
			h.NoContent(c)
		}
	})
	r.GET("/items/:id", func(c *gin.Context) {
		if _, ok := h.ParseUUIDParam(c, "id"); ok {
			h.NoContent(c)
		}
	})

	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/anon/x", nil).Code)

	w := doJSON(r, http.MethodGet, "/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error.Details, "id")

	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodGet, "/items/"+uuid.NewString(), nil).Code)
}

func TestPaginated_EmptyItemsSerialiseAsArray(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paginated(h, c, shared.NewPaginated[string](nil, 0, 1, 20))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0,"page":1,"page_size":20,"total_pages":0}}`, w.Body.String())
}
