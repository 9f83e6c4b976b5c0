package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	cartapp "github.com/linkmarket/backend/internal/application/cart"
)

// Carts is the cart flow behind the cart endpoints
type Carts interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*cartapp.CartResponse, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, req cartapp.AddItemRequest) (*cartapp.CartResponse, error)
	UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, req cartapp.UpdateItemRequest) (*cartapp.CartResponse, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*cartapp.CartResponse, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
	Restore(ctx context.Context, buyerID uuid.UUID) (*cartapp.RestoreResult, error)
	DiscardBackup(ctx context.Context, buyerID uuid.UUID) error
}

// CartHandler handles the buyer's cart
type CartHandler struct {
	BaseHandler
	carts Carts
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts Carts) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get godoc
// @ID           getCart
// @Summary      Current cart
// @Description  Falls back to the read-only backup snapshot when the database is unavailable
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	cart, err := h.carts.GetCart(c.Request.Context(), buyerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddItem godoc
// @ID           addCartItem
// @Summary      Add a placement
// @Description  The price is quoted from the catalog at add time
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cartapp.AddItemRequest true "Placement"
// @Success      201 {object} APIResponse[cartapp.CartResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req cartapp.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.carts.AddItem(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cart)
}

// UpdateItem godoc
// @ID           updateCartItem
// @Summary      Edit a placement
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id path string true "Cart item ID"
// @Param        request body cartapp.UpdateItemRequest true "Changed fields"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/items/{id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req cartapp.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.carts.UpdateItem(c.Request.Context(), buyerID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem godoc
// @ID           removeCartItem
// @Summary      Remove a placement
// @Tags         cart
// @Produce      json
// @Param        id path string true "Cart item ID"
// @Success      200 {object} APIResponse[cartapp.CartResponse]
// @Security     BearerAuth
// @Router       /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(c.Request.Context(), buyerID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear godoc
// @ID           clearCart
// @Summary      Empty the cart
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), buyerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore godoc
// @ID           restoreCart
// @Summary      Restore the backup snapshot
// @Description  Re-adds backed up lines that are still purchasable at current prices
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[cartapp.RestoreResult]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /cart/restore [post]
func (h *CartHandler) Restore(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	result, err := h.carts.Restore(c.Request.Context(), buyerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DiscardBackup godoc
// @ID           discardCartBackup
// @Summary      Drop the backup snapshot
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart/backup [delete]
func (h *CartHandler) DiscardBackup(c *gin.Context) {
	buyerID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	if err := h.carts.DiscardBackup(c.Request.Context(), buyerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
