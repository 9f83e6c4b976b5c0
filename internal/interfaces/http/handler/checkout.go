package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
)

// Checkouts is the wizard flow behind the checkout endpoints
type Checkouts interface {
	Start(ctx context.Context, buyerID uuid.UUID) (*checkoutapp.SessionResponse, error)
	Get(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error)
	Current(ctx context.Context, buyerID uuid.UUID) (*checkoutapp.SessionResponse, error)
	SelectPaymentMethod(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.SelectPaymentMethodRequest) (*checkoutapp.SessionResponse, error)
	SubmitBilling(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.BillingRequest) (*checkoutapp.SessionResponse, error)
	SubmitContent(ctx context.Context, buyerID, sessionID, lineID uuid.UUID, req checkoutapp.ContentRequest) (*checkoutapp.SessionResponse, error)
	RequestContentUpload(ctx context.Context, buyerID, sessionID, lineID uuid.UUID, req checkoutapp.UploadRequest) (*checkoutapp.UploadTarget, error)
	Next(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error)
	Back(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error)
	GoTo(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.GoToRequest) (*checkoutapp.SessionResponse, error)
	Confirm(ctx context.Context, buyerID, sessionID uuid.UUID, req checkoutapp.ConfirmRequest) (*checkoutapp.ConfirmResult, error)
}

// CheckoutHandler drives the five-step checkout wizard
type CheckoutHandler struct {
	BaseHandler
	checkouts Checkouts
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkouts Checkouts) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts}
}

type sessionAction func(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error)

// withSession resolves the buyer and the :id session parameter
func (h *CheckoutHandler) withSession(c *gin.Context) (buyerID, sessionID uuid.UUID, ok bool) {
	if buyerID, ok = h.CurrentUserID(c); !ok {
		return
	}
	sessionID, ok = h.ParseUUIDParam(c, "id")
	return
}

func (h *CheckoutHandler) run(c *gin.Context, action sessionAction) {
	buyerID, sessionID, ok := h.withSession(c)
	if !ok {
		return
	}
	session, err := action(c.Request.Context(), buyerID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Start godoc
// @ID           startCheckout
// @Summary      Start checkout
// @Description  Snapshots the cart into a new session; an active session is returned as is
// @Tags         checkout
// @Produce      json
// @Success      201 {object} APIResponse[checkoutapp.SessionResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout [post]
func (h *CheckoutHandler) Start(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	session, err := h.checkouts.Start(c.Request.Context(), buyerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Current godoc
// @ID           currentCheckout
// @Summary      The buyer's active session
// @Tags         checkout
// @Produce      json
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/current [get]
func (h *CheckoutHandler) Current(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	session, err := h.checkouts.Current(c.Request.Context(), buyerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Get godoc
// @ID           getCheckout
// @Summary      Checkout session
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/{id} [get]
func (h *CheckoutHandler) Get(c *gin.Context) {
	h.run(c, h.checkouts.Get)
}

// SelectPaymentMethod godoc
// @ID           selectPaymentMethod
// @Summary      Choose card or bank transfer
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body checkoutapp.SelectPaymentMethodRequest true "Method"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Security     BearerAuth
// @Router       /checkout/{id}/payment-method [put]
func (h *CheckoutHandler) SelectPaymentMethod(c *gin.Context) {
	var req checkoutapp.SelectPaymentMethodRequest
	h.runWithBody(c, &req, func(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
		return h.checkouts.SelectPaymentMethod(ctx, buyerID, sessionID, req)
	})
}

// SubmitBilling godoc
// @ID           submitBilling
// @Summary      Save billing details
// @Description  Partial forms are saved; missing fields block Next
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body checkoutapp.BillingRequest true "Billing"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Security     BearerAuth
// @Router       /checkout/{id}/billing [put]
func (h *CheckoutHandler) SubmitBilling(c *gin.Context) {
	var req checkoutapp.BillingRequest
	h.runWithBody(c, &req, func(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
		return h.checkouts.SubmitBilling(ctx, buyerID, sessionID, req)
	})
}

// SubmitContent godoc
// @ID           submitContent
// @Summary      Save a line's article
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        lineId path string true "Line ID"
// @Param        request body checkoutapp.ContentRequest true "Article"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Security     BearerAuth
// @Router       /checkout/{id}/content/{lineId} [put]
func (h *CheckoutHandler) SubmitContent(c *gin.Context) {
	lineID, ok := h.ParseUUIDParam(c, "lineId")
	if !ok {
		return
	}
	var req checkoutapp.ContentRequest
	h.runWithBody(c, &req, func(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
		return h.checkouts.SubmitContent(ctx, buyerID, sessionID, lineID, req)
	})
}

// RequestUpload godoc
// @ID           requestContentUpload
// @Summary      Presigned upload URL for an article document
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        lineId path string true "Line ID"
// @Param        request body checkoutapp.UploadRequest true "File"
// @Success      200 {object} APIResponse[checkoutapp.UploadTarget]
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/{id}/content/{lineId}/upload-url [post]
func (h *CheckoutHandler) RequestUpload(c *gin.Context) {
	buyerID, sessionID, ok := h.withSession(c)
	if !ok {
		return
	}
	lineID, ok := h.ParseUUIDParam(c, "lineId")
	if !ok {
		return
	}
	var req checkoutapp.UploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	target, err := h.checkouts.RequestContentUpload(c.Request.Context(), buyerID, sessionID, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, target)
}

// Next godoc
// @ID           checkoutNext
// @Summary      Advance one step
// @Description  Fails with STEP_INCOMPLETE and field details when the current step is not complete
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/{id}/next [post]
func (h *CheckoutHandler) Next(c *gin.Context) {
	h.run(c, h.checkouts.Next)
}

// Back godoc
// @ID           checkoutBack
// @Summary      Go back one step
// @Tags         checkout
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Security     BearerAuth
// @Router       /checkout/{id}/back [post]
func (h *CheckoutHandler) Back(c *gin.Context) {
	h.run(c, h.checkouts.Back)
}

// GoTo godoc
// @ID           checkoutGoTo
// @Summary      Jump to a reached step
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body checkoutapp.GoToRequest true "Step"
// @Success      200 {object} APIResponse[checkoutapp.SessionResponse]
// @Security     BearerAuth
// @Router       /checkout/{id}/goto [post]
func (h *CheckoutHandler) GoTo(c *gin.Context) {
	var req checkoutapp.GoToRequest
	h.runWithBody(c, &req, func(ctx context.Context, buyerID, sessionID uuid.UUID) (*checkoutapp.SessionResponse, error) {
		return h.checkouts.GoTo(ctx, buyerID, sessionID, req)
	})
}

// Confirm godoc
// @ID           confirmCheckout
// @Summary      Place the order
// @Description  Creates the order; card orders get a payment redirect, bank transfers get instructions
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID"
// @Param        request body checkoutapp.ConfirmRequest true "Terms acceptance"
// @Success      201 {object} APIResponse[checkoutapp.ConfirmResult]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /checkout/{id}/confirm [post]
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	buyerID, sessionID, ok := h.withSession(c)
	if !ok {
		return
	}
	var req checkoutapp.ConfirmRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.checkouts.Confirm(c.Request.Context(), buyerID, sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

func (h *CheckoutHandler) runWithBody(c *gin.Context, req any, action sessionAction) {
	buyerID, sessionID, ok := h.withSession(c)
	if !ok {
		return
	}
	if !h.BindJSON(c, req) {
		return
	}
	session, err := action(c.Request.Context(), buyerID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}
