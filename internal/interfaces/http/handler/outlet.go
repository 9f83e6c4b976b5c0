package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/linkmarket/backend/internal/application/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/interfaces/http/middleware"
)

// Outlets is the catalog flow behind the outlet endpoints
type Outlets interface {
	CreateOutlet(ctx context.Context, publisherID uuid.UUID, req catalogapp.OutletRequest) (*catalogapp.OutletResponse, error)
	UpdateOutlet(ctx context.Context, publisherID, outletID uuid.UUID, req catalogapp.OutletRequest) (*catalogapp.OutletResponse, error)
	SetNicheRule(ctx context.Context, publisherID, outletID uuid.UUID, niche string, req catalogapp.NicheRuleRequest) (*catalogapp.OutletResponse, error)
	RemoveNicheRule(ctx context.Context, publisherID, outletID uuid.UUID, niche string) (*catalogapp.OutletResponse, error)
	ListMyOutlets(ctx context.Context, publisherID uuid.UUID, q catalogapp.ListOutletsQuery) (shared.Paginated[*catalogapp.OutletResponse], error)
	ListOutlets(ctx context.Context, q catalogapp.ListOutletsQuery, isAdmin bool) (shared.Paginated[*catalogapp.OutletResponse], error)
	GetOutlet(ctx context.Context, outletID, viewerID uuid.UUID, isAdmin bool) (*catalogapp.OutletResponse, error)
	QuotePrice(ctx context.Context, outletID uuid.UUID, niche string) (*catalogapp.QuoteResponse, error)
	ApproveOutlet(ctx context.Context, outletID uuid.UUID) (*catalogapp.OutletResponse, error)
	SuspendOutlet(ctx context.Context, outletID uuid.UUID, reason string) (*catalogapp.OutletResponse, error)
	ReactivateOutlet(ctx context.Context, outletID uuid.UUID) (*catalogapp.OutletResponse, error)
}

// OutletHandler serves the marketplace catalog to buyers, publishers and admins
type OutletHandler struct {
	BaseHandler
	outlets Outlets
}

// NewOutletHandler creates a new OutletHandler
func NewOutletHandler(outlets Outlets) *OutletHandler {
	return &OutletHandler{outlets: outlets}
}

// List godoc
// @ID           listOutlets
// @Summary      Browse outlets
// @Description  Active outlets only, unless the caller is an admin
// @Tags         outlets
// @Produce      json
// @Param        category query string false "Category"
// @Param        language query string false "Language tag"
// @Param        country query string false "ISO country code"
// @Param        niche query string false "Accepted niche"
// @Param        link_type query string false "dofollow or nofollow"
// @Param        min_price query number false "Minimum base price"
// @Param        max_price query number false "Maximum base price"
// @Param        min_da query int false "Minimum domain authority"
// @Param        search query string false "Name or domain search"
// @Param        sort_by query string false "price, da, traffic, created_at or name"
// @Param        sort_order query string false "asc or desc"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]catalogapp.OutletResponse]
// @Router       /outlets [get]
func (h *OutletHandler) List(c *gin.Context) {
	var q catalogapp.ListOutletsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.outlets.ListOutlets(c.Request.Context(), q, h.IsAdmin(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Get godoc
// @ID           getOutlet
// @Summary      Outlet detail
// @Tags         outlets
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /outlets/{id} [get]
func (h *OutletHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	outlet, err := h.outlets.GetOutlet(c.Request.Context(), id, middleware.GetJWTUserID(c), h.IsAdmin(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outlet)
}

// Quote godoc
// @ID           quoteOutlet
// @Summary      Price of a placement
// @Description  Base price times the niche multiplier
// @Tags         outlets
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Param        niche query string false "Niche, general when omitted"
// @Success      200 {object} APIResponse[catalogapp.QuoteResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /outlets/{id}/quote [get]
func (h *OutletHandler) Quote(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	quote, err := h.outlets.QuotePrice(c.Request.Context(), id, c.Query("niche"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Create godoc
// @ID           createOutlet
// @Summary      List a new outlet
// @Description  New outlets wait for admin approval
// @Tags         publisher
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.OutletRequest true "Outlet"
// @Success      201 {object} APIResponse[catalogapp.OutletResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /publisher/outlets [post]
func (h *OutletHandler) Create(c *gin.Context) {
	publisherID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req catalogapp.OutletRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.outlets.CreateOutlet(c.Request.Context(), publisherID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, outlet)
}

// ListMine godoc
// @ID           listMyOutlets
// @Summary      The publisher's outlets
// @Tags         publisher
// @Produce      json
// @Param        status query string false "pending, active or suspended"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]catalogapp.OutletResponse]
// @Security     BearerAuth
// @Router       /publisher/outlets [get]
func (h *OutletHandler) ListMine(c *gin.Context) {
	publisherID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var q catalogapp.ListOutletsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.outlets.ListMyOutlets(c.Request.Context(), publisherID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// Update godoc
// @ID           updateOutlet
// @Summary      Edit an outlet
// @Tags         publisher
// @Accept       json
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Param        request body catalogapp.OutletRequest true "Outlet"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /publisher/outlets/{id} [put]
func (h *OutletHandler) Update(c *gin.Context) {
	publisherID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.OutletRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.outlets.UpdateOutlet(c.Request.Context(), publisherID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outlet)
}

// SetNicheRule godoc
// @ID           setNicheRule
// @Summary      Accept or refuse a niche
// @Tags         publisher
// @Accept       json
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Param        niche path string true "Niche"
// @Param        request body catalogapp.NicheRuleRequest true "Rule"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /publisher/outlets/{id}/niches/{niche} [put]
func (h *OutletHandler) SetNicheRule(c *gin.Context) {
	publisherID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.NicheRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.outlets.SetNicheRule(c.Request.Context(), publisherID, id, c.Param("niche"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outlet)
}

// RemoveNicheRule godoc
// @ID           removeNicheRule
// @Summary      Drop a niche rule
// @Tags         publisher
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Param        niche path string true "Niche"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Security     BearerAuth
// @Router       /publisher/outlets/{id}/niches/{niche} [delete]
func (h *OutletHandler) RemoveNicheRule(c *gin.Context) {
	publisherID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	outlet, err := h.outlets.RemoveNicheRule(c.Request.Context(), publisherID, id, c.Param("niche"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outlet)
}

// Approve godoc
// @ID           approveOutlet
// @Summary      Approve a pending outlet
// @Tags         admin
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/outlets/{id}/approve [post]
func (h *OutletHandler) Approve(c *gin.Context) {
	h.moderate(c, h.outlets.ApproveOutlet)
}

// Suspend godoc
// @ID           suspendOutlet
// @Summary      Suspend an outlet
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Param        request body catalogapp.SuspendRequest false "Reason"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Security     BearerAuth
// @Router       /admin/outlets/{id}/suspend [post]
func (h *OutletHandler) Suspend(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.SuspendRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	outlet, err := h.outlets.SuspendOutlet(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outlet)
}

// Reactivate godoc
// @ID           reactivateOutlet
// @Summary      Reactivate a suspended outlet
// @Tags         admin
// @Produce      json
// @Param        id path string true "Outlet ID"
// @Success      200 {object} APIResponse[catalogapp.OutletResponse]
// @Security     BearerAuth
// @Router       /admin/outlets/{id}/reactivate [post]
func (h *OutletHandler) Reactivate(c *gin.Context) {
	h.moderate(c, h.outlets.ReactivateOutlet)
}

func (h *OutletHandler) moderate(c *gin.Context, action func(context.Context, uuid.UUID) (*catalogapp.OutletResponse, error)) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	outlet, err := action(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outlet)
}
