package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	catalogapp "github.com/linkmarket/backend/internal/application/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOutletHandler_PublicBrowse(t *testing.T) {
	outlets := &mockOutlets{}
	h := NewOutletHandler(outlets)
	r := newTestEngine()
	r.GET("/outlets", h.List)
	r.GET("/outlets/:id", h.Get)
	r.GET("/outlets/:id/quote", h.Quote)

	outlets.On("ListOutlets", mock.Anything, mock.MatchedBy(func(q catalogapp.ListOutletsQuery) bool {
		return q.Niche == "casino" && q.MinPrice != nil && q.MinPrice.Equal(decimal.NewFromInt(50)) && q.SortBy == "price"
	}), false).Return(shared.NewPaginated([]*catalogapp.OutletResponse{{Name: "Tech Daily"}}, 1, 1, 20), nil)

	w := doJSON(r, http.MethodGet, "/outlets?niche=casino&min_price=50&sort_by=price", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []catalogapp.OutletResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &items))
	assert.Len(t, items, 1)

	outletID := uuid.New()
	outlets.On("GetOutlet", mock.Anything, outletID, uuid.Nil, false).
		Return(nil, shared.NewDomainError("OUTLET_NOT_FOUND", "Outlet not found"))
	w = doJSON(r, http.MethodGet, "/outlets/"+outletID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	outlets.On("QuotePrice", mock.Anything, outletID, "crypto").Return(&catalogapp.QuoteResponse{
		OutletID: outletID, Niche: "crypto", BasePrice: decimal.NewFromInt(100),
		Multiplier: decimal.RequireFromString("1.5"), Price: decimal.NewFromInt(150), Currency: "USD",
	}, nil)
	w = doJSON(r, http.MethodGet, "/outlets/"+outletID.String()+"/quote?niche=crypto", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var quote catalogapp.QuoteResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &quote))
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(150)))

	outlets.AssertExpectations(t)
}

func TestOutletHandler_AdminSeesAllStatuses(t *testing.T) {
	outlets := &mockOutlets{}
	h := NewOutletHandler(outlets)
	r := newTestEngine(asUser(uuid.New(), "admin"))
	r.GET("/outlets", h.List)

	outlets.On("ListOutlets", mock.Anything, mock.Anything, true).
		Return(shared.NewPaginated([]*catalogapp.OutletResponse{}, 0, 1, 20), nil)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/outlets?status=pending", nil).Code)
	outlets.AssertExpectations(t)
}

func TestOutletHandler_Publisher(t *testing.T) {
	publisherID := uuid.New()
	outlets := &mockOutlets{}
	h := NewOutletHandler(outlets)
	r := newTestEngine(asUser(publisherID, "publisher"))
	r.POST("/publisher/outlets", h.Create)
	r.PUT("/publisher/outlets/:id/niches/:niche", h.SetNicheRule)
	r.DELETE("/publisher/outlets/:id/niches/:niche", h.RemoveNicheRule)

	req := catalogapp.OutletRequest{
		Name: "Tech Daily", Domain: "techdaily.example", Category: "technology", Language: "en",
		Country: "US", BasePrice: decimal.NewFromInt(120), DomainAuthority: 55, LinkType: "dofollow", TurnaroundDays: 5,
	}
	outlets.On("CreateOutlet", mock.Anything, publisherID, mock.MatchedBy(func(r catalogapp.OutletRequest) bool {
		return r.Domain == req.Domain && r.BasePrice.Equal(req.BasePrice)
	})).Return(&catalogapp.OutletResponse{Name: req.Name, Status: "pending"}, nil)

	w := doJSON(r, http.MethodPost, "/publisher/outlets", req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	outletID := uuid.New()
	accepted := true
	outlets.On("SetNicheRule", mock.Anything, publisherID, outletID, "casino", mock.MatchedBy(func(r catalogapp.NicheRuleRequest) bool {
		return r.Accepted != nil && *r.Accepted && r.Multiplier.Equal(decimal.NewFromInt(2))
	})).Return(&catalogapp.OutletResponse{ID: outletID}, nil)
	w = doJSON(r, http.MethodPut, "/publisher/outlets/"+outletID.String()+"/niches/casino",
		catalogapp.NicheRuleRequest{Accepted: &accepted, Multiplier: decimal.NewFromInt(2)})
	assert.Equal(t, http.StatusOK, w.Code)

	outlets.On("RemoveNicheRule", mock.Anything, publisherID, outletID, "casino").
		Return(nil, shared.ErrForbidden)
	w = doJSON(r, http.MethodDelete, "/publisher/outlets/"+outletID.String()+"/niches/casino", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	outlets.AssertExpectations(t)
}

func TestOutletHandler_Moderation(t *testing.T) {
	outlets := &mockOutlets{}
	h := NewOutletHandler(outlets)
	r := newTestEngine(asUser(uuid.New(), "admin"))
	r.POST("/admin/outlets/:id/approve", h.Approve)
	r.POST("/admin/outlets/:id/suspend", h.Suspend)
	r.POST("/admin/outlets/:id/reactivate", h.Reactivate)

	id := uuid.New()
	outlets.On("ApproveOutlet", mock.Anything, id).Return(&catalogapp.OutletResponse{ID: id, Status: "active"}, nil)
	outlets.On("SuspendOutlet", mock.Anything, id, "spam").Return(&catalogapp.OutletResponse{ID: id, Status: "suspended"}, nil)
	outlets.On("SuspendOutlet", mock.Anything, id, "").Return(&catalogapp.OutletResponse{ID: id, Status: "suspended"}, nil)
	outlets.On("ReactivateOutlet", mock.Anything, id).Return(nil, shared.ErrInvalidState)

	base := "/admin/outlets/" + id.String()
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, base+"/approve", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, base+"/suspend", catalogapp.SuspendRequest{Reason: "spam"}).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, base+"/suspend", nil).Code)

	w := doJSON(r, http.MethodPost, base+"/reactivate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w).Error.Code)

	outlets.AssertExpectations(t)
}
