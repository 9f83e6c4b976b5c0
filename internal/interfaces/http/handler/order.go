package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	checkoutapp "github.com/linkmarket/backend/internal/application/checkout"
	orderapp "github.com/linkmarket/backend/internal/application/order"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Orders is the order flow behind the buyer, publisher and admin order endpoints
type Orders interface {
	ListMyOrders(ctx context.Context, buyerID uuid.UUID, q orderapp.ListOrdersQuery) (shared.Paginated[*orderapp.OrderResponse], error)
	GetMyOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	CancelOrder(ctx context.Context, buyerID, orderID uuid.UUID, req orderapp.CancelRequest) (*orderapp.OrderResponse, error)
	ListPublisherItems(ctx context.Context, publisherID uuid.UUID, q orderapp.ListItemsQuery) (shared.Paginated[*orderapp.PublisherItemResponse], error)
	AcceptItem(ctx context.Context, publisherID, itemID uuid.UUID) (*orderapp.PublisherItemResponse, error)
	RejectItem(ctx context.Context, publisherID, itemID uuid.UUID, req orderapp.RejectItemRequest) (*orderapp.PublisherItemResponse, error)
	PublishItem(ctx context.Context, publisherID, itemID uuid.UUID, req orderapp.PublishItemRequest) (*orderapp.PublisherItemResponse, error)
	ListOrders(ctx context.Context, q orderapp.ListOrdersQuery) (shared.Paginated[*orderapp.OrderResponse], error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error)
	MarkBankTransferPaid(ctx context.Context, adminID, orderID uuid.UUID) (*orderapp.OrderResponse, error)
	RefundOrder(ctx context.Context, adminID, orderID uuid.UUID, req orderapp.RefundRequest) (*orderapp.OrderResponse, error)
}

// PaymentRetrier opens a fresh payment page for an unpaid card order
type PaymentRetrier interface {
	RetryPayment(ctx context.Context, buyerID, orderID uuid.UUID) (*checkoutapp.PaymentRedirect, error)
}

// OrderHandler handles orders and the publisher work queue
type OrderHandler struct {
	BaseHandler
	orders   Orders
	payments PaymentRetrier
}

// NewOrderHandler creates a new OrderHandler. payments may be nil when card
// payments are not configured.
func NewOrderHandler(orders Orders, payments PaymentRetrier) *OrderHandler {
	return &OrderHandler{orders: orders, payments: payments}
}

// ListMine godoc
// @ID           listMyOrders
// @Summary      The buyer's orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status"
// @Param        payment_status query string false "Payment status"
// @Param        search query string false "Order number search"
// @Param        sort_by query string false "created_at, order_number, total, status or paid_at"
// @Param        sort_order query string false "asc or desc"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var q orderapp.ListOrdersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.orders.ListMyOrders(c.Request.Context(), buyerID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// GetMine godoc
// @ID           getMyOrder
// @Summary      Order detail
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetMyOrder(c.Request.Context(), buyerID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel an order
// @Description  Only orders whose placements have not been accepted can be cancelled
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body orderapp.CancelRequest false "Reason"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.CancelRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.CancelOrder(c.Request.Context(), buyerID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// RetryPayment godoc
// @ID           retryPayment
// @Summary      Retry a card payment
// @Description  Expires the previous payment page and opens a new one
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[checkoutapp.PaymentRedirect]
// @Failure      402 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/retry-payment [post]
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if h.payments == nil {
		h.ServiceUnavailable(c, "Card payments are not available")
		return
	}
	redirect, err := h.payments.RetryPayment(c.Request.Context(), buyerID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, redirect)
}

// ListItems godoc
// @ID           listPublisherItems
// @Summary      The publisher's placements
// @Tags         publisher
// @Produce      json
// @Param        status query string false "pending, accepted, rejected or published"
// @Param        outlet_id query string false "Outlet ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]orderapp.PublisherItemResponse]
// @Security     BearerAuth
// @Router       /publisher/items [get]
func (h *OrderHandler) ListItems(c *gin.Context) {
	publisherID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var q orderapp.ListItemsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.orders.ListPublisherItems(c.Request.Context(), publisherID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// AcceptItem godoc
// @ID           acceptItem
// @Summary      Accept a placement
// @Tags         publisher
// @Produce      json
// @Param        id path string true "Order item ID"
// @Success      200 {object} APIResponse[orderapp.PublisherItemResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /publisher/items/{id}/accept [post]
func (h *OrderHandler) AcceptItem(c *gin.Context) {
	publisherID, itemID, ok := h.publisherItem(c)
	if !ok {
		return
	}
	item, err := h.orders.AcceptItem(c.Request.Context(), publisherID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// RejectItem godoc
// @ID           rejectItem
// @Summary      Reject a placement
// @Tags         publisher
// @Accept       json
// @Produce      json
// @Param        id path string true "Order item ID"
// @Param        request body orderapp.RejectItemRequest true "Reason"
// @Success      200 {object} APIResponse[orderapp.PublisherItemResponse]
// @Security     BearerAuth
// @Router       /publisher/items/{id}/reject [post]
func (h *OrderHandler) RejectItem(c *gin.Context) {
	publisherID, itemID, ok := h.publisherItem(c)
	if !ok {
		return
	}
	var req orderapp.RejectItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.orders.RejectItem(c.Request.Context(), publisherID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// PublishItem godoc
// @ID           publishItem
// @Summary      Report a live article
// @Tags         publisher
// @Accept       json
// @Produce      json
// @Param        id path string true "Order item ID"
// @Param        request body orderapp.PublishItemRequest true "Published URL"
// @Success      200 {object} APIResponse[orderapp.PublisherItemResponse]
// @Security     BearerAuth
// @Router       /publisher/items/{id}/publish [post]
func (h *OrderHandler) PublishItem(c *gin.Context) {
	publisherID, itemID, ok := h.publisherItem(c)
	if !ok {
		return
	}
	var req orderapp.PublishItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.orders.PublishItem(c.Request.Context(), publisherID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

func (h *OrderHandler) publisherItem(c *gin.Context) (publisherID, itemID uuid.UUID, ok bool) {
	if publisherID, ok = h.CurrentUserID(c); !ok {
		return
	}
	itemID, ok = h.ParseUUIDParam(c, "id")
	return
}

// AdminList godoc
// @ID           adminListOrders
// @Summary      All orders
// @Tags         admin
// @Produce      json
// @Param        status query string false "Order status"
// @Param        payment_status query string false "Payment status"
// @Param        buyer_id query string false "Buyer ID"
// @Param        search query string false "Order number search"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]orderapp.OrderResponse]
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var q orderapp.ListOrdersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.orders.ListOrders(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// AdminGet godoc
// @ID           adminGetOrder
// @Summary      Any order
// @Tags         admin
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) AdminGet(c *gin.Context) {
	orderID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// UpdateStatus godoc
// @ID           adminUpdateOrderStatus
// @Summary      Override an order's status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body orderapp.UpdateStatusRequest true "Status"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	adminID, orderID, ok := h.adminOrder(c)
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), adminID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// MarkPaid godoc
// @ID           adminMarkOrderPaid
// @Summary      Record a received bank transfer
// @Tags         admin
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/mark-paid [post]
func (h *OrderHandler) MarkPaid(c *gin.Context) {
	adminID, orderID, ok := h.adminOrder(c)
	if !ok {
		return
	}
	o, err := h.orders.MarkBankTransferPaid(c.Request.Context(), adminID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Refund godoc
// @ID           adminRefundOrder
// @Summary      Refund a paid order
// @Description  Card orders are refunded through the gateway
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body orderapp.RefundRequest true "Reason"
// @Success      200 {object} APIResponse[orderapp.OrderResponse]
// @Failure      402 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	adminID, orderID, ok := h.adminOrder(c)
	if !ok {
		return
	}
	var req orderapp.RefundRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.orders.RefundOrder(c.Request.Context(), adminID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

func (h *OrderHandler) adminOrder(c *gin.Context) (adminID, orderID uuid.UUID, ok bool) {
	if adminID, ok = h.CurrentUserID(c); !ok {
		return
	}
	orderID, ok = h.ParseUUIDParam(c, "id")
	return
}
