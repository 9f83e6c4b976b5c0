package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// OutletRequest carries the publisher-editable listing attributes
type OutletRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=200"`
	Domain          string          `json:"domain" binding:"required,max=253"`
	Description     string          `json:"description" binding:"max=5000"`
	Category        string          `json:"category" binding:"required,max=100"`
	Language        string          `json:"language" binding:"required,max=35"`
	Country         string          `json:"country" binding:"required,len=2"`
	BasePrice       decimal.Decimal `json:"base_price" binding:"required"`
	DomainAuthority int             `json:"domain_authority" binding:"min=0,max=100"`
	MonthlyTraffic  int64           `json:"monthly_traffic" binding:"min=0"`
	LinkType        string          `json:"link_type" binding:"required,oneof=dofollow nofollow"`
	TurnaroundDays  int             `json:"turnaround_days" binding:"required,min=1,max=60"`
}

func (r OutletRequest) details() catalog.OutletDetails {
	return catalog.OutletDetails{
		Name:            r.Name,
		Domain:          r.Domain,
		Description:     r.Description,
		Category:        r.Category,
		Language:        r.Language,
		Country:         r.Country,
		DomainAuthority: r.DomainAuthority,
		MonthlyTraffic:  r.MonthlyTraffic,
		LinkType:        catalog.LinkType(r.LinkType),
		TurnaroundDays:  r.TurnaroundDays,
	}
}

// NicheRuleRequest sets acceptance and price multiplier for one niche
type NicheRuleRequest struct {
	Accepted   *bool           `json:"accepted" binding:"required"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// SuspendRequest carries the admin's reason
type SuspendRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListOutletsQuery contains the marketplace browse filters
type ListOutletsQuery struct {
	Category  string           `form:"category"`
	Language  string           `form:"language"`
	Country   string           `form:"country" binding:"omitempty,len=2"`
	Niche     string           `form:"niche"`
	LinkType  string           `form:"link_type" binding:"omitempty,oneof=dofollow nofollow"`
	MinPrice  *decimal.Decimal `form:"min_price"`
	MaxPrice  *decimal.Decimal `form:"max_price"`
	MinDA     *int             `form:"min_da" binding:"omitempty,min=0,max=100"`
	Status    string           `form:"status" binding:"omitempty,oneof=pending active suspended"`
	Search    string           `form:"search" binding:"max=100"`
	SortBy    string           `form:"sort_by" binding:"omitempty,oneof=price da traffic created_at name"`
	SortOrder string           `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int              `form:"page" binding:"omitempty,min=1"`
	PageSize  int              `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// NicheRuleResponse is one explicit niche rule
type NicheRuleResponse struct {
	Niche       string          `json:"niche"`
	DisplayName string          `json:"display_name"`
	Accepted    bool            `json:"accepted"`
	Multiplier  decimal.Decimal `json:"multiplier"`
}

// OutletResponse is the marketplace view of an outlet
type OutletResponse struct {
	ID              uuid.UUID           `json:"id"`
	PublisherID     uuid.UUID           `json:"publisher_id"`
	Name            string              `json:"name"`
	Domain          string              `json:"domain"`
	Description     string              `json:"description,omitempty"`
	Category        string              `json:"category"`
	Language        string              `json:"language"`
	Country         string              `json:"country"`
	BasePrice       decimal.Decimal     `json:"base_price"`
	Currency        string              `json:"currency"`
	DomainAuthority int                 `json:"domain_authority"`
	MonthlyTraffic  int64               `json:"monthly_traffic"`
	LinkType        string              `json:"link_type"`
	TurnaroundDays  int                 `json:"turnaround_days"`
	Status          string              `json:"status"`
	NicheRules      []NicheRuleResponse `json:"niche_rules"`
	AcceptedNiches  []string            `json:"accepted_niches"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// QuoteResponse is the price of one placement
type QuoteResponse struct {
	OutletID   uuid.UUID       `json:"outlet_id"`
	Niche      string          `json:"niche"`
	BasePrice  decimal.Decimal `json:"base_price"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
}

// ToOutletResponse maps an outlet to its response
func ToOutletResponse(o *catalog.MediaOutlet) *OutletResponse {
	rules := make([]NicheRuleResponse, len(o.NicheRules))
	for i, r := range o.NicheRules {
		rules[i] = NicheRuleResponse{
			Niche:       string(r.Niche),
			DisplayName: r.Niche.DisplayName(),
			Accepted:    r.Accepted,
			Multiplier:  r.Multiplier,
		}
	}
	accepted := o.AcceptedNiches()
	niches := make([]string, len(accepted))
	for i, n := range accepted {
		niches[i] = string(n)
	}

	return &OutletResponse{
		ID:              o.ID,
		PublisherID:     o.PublisherID,
		Name:            o.Name,
		Domain:          o.Domain,
		Description:     o.Description,
		Category:        o.Category,
		Language:        o.Language,
		Country:         o.Country,
		BasePrice:       o.BasePrice.Amount(),
		Currency:        string(o.BasePrice.Currency()),
		DomainAuthority: o.DomainAuthority,
		MonthlyTraffic:  o.MonthlyTraffic,
		LinkType:        string(o.LinkType),
		TurnaroundDays:  o.TurnaroundDays,
		Status:          string(o.Status),
		NicheRules:      rules,
		AcceptedNiches:  niches,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
