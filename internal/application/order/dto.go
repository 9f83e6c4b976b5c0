package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/checkout"
	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// ListOrdersQuery filters order listings; BuyerID is only honoured for admins
type ListOrdersQuery struct {
	Status        string     `form:"status" binding:"omitempty,oneof=pending_payment paid in_progress completed cancelled refunded"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=unpaid pending paid failed refunded"`
	BuyerID       *uuid.UUID `form:"buyer_id"`
	Search        string     `form:"search" binding:"max=100"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=created_at order_number total status paid_at"`
	SortOrder     string     `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListItemsQuery filters a publisher's work queue
type ListItemsQuery struct {
	Status    string     `form:"status" binding:"omitempty,oneof=pending accepted rejected published"`
	OutletID  *uuid.UUID `form:"outlet_id"`
	SortBy    string     `form:"sort_by" binding:"omitempty,oneof=created_at price status"`
	SortOrder string     `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CancelRequest carries an optional reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// RejectItemRequest declines a placement
type RejectItemRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// PublishItemRequest reports the live article
type PublishItemRequest struct {
	URL string `json:"url" binding:"required,url,max=2048"`
}

// UpdateStatusRequest is the admin status override
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=paid in_progress completed cancelled refunded"`
	Reason string `json:"reason" binding:"max=1000"`
}

// RefundRequest refunds a paid order
type RefundRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ContentResponse is the buyer's article for an item
type ContentResponse struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	FileKey    string `json:"file_key,omitempty"`
	TargetURL  string `json:"target_url"`
	AnchorText string `json:"anchor_text"`
	Notes      string `json:"notes,omitempty"`
}

// ItemResponse is one placement of an order
type ItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	OutletID        uuid.UUID       `json:"outlet_id"`
	PublisherID     uuid.UUID       `json:"publisher_id"`
	OutletName      string          `json:"outlet_name"`
	OutletDomain    string          `json:"outlet_domain"`
	Niche           string          `json:"niche"`
	Price           decimal.Decimal `json:"price"`
	Content         ContentResponse `json:"content"`
	Status          string          `json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	PublishedURL    string          `json:"published_url,omitempty"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
}

// OrderResponse is an order with its items
type OrderResponse struct {
	ID            uuid.UUID            `json:"id"`
	OrderNumber   string               `json:"order_number"`
	BuyerID       uuid.UUID            `json:"buyer_id"`
	Status        string               `json:"status"`
	PaymentMethod string               `json:"payment_method"`
	PaymentStatus string               `json:"payment_status"`
	Billing       checkout.BillingInfo `json:"billing"`
	Items         []ItemResponse       `json:"items"`
	ItemCounts    map[string]int       `json:"item_counts"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Total         decimal.Decimal      `json:"total"`
	Currency      string               `json:"currency"`
	CanRetryPay   bool                 `json:"can_retry_payment"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	RefundedAt    *time.Time           `json:"refunded_at,omitempty"`
	RefundReason  string               `json:"refund_reason,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// PublisherItemResponse is an item in a publisher's queue. Billing and buyer
// identity are not exposed to publishers.
type PublisherItemResponse struct {
	ItemResponse
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OrderStatus string    `json:"order_status"`
	OrderedAt   time.Time `json:"ordered_at"`
}

func toItemResponse(i order.Item) ItemResponse {
	return ItemResponse{
		ID:           i.ID,
		OutletID:     i.OutletID,
		PublisherID:  i.PublisherID,
		OutletName:   i.OutletName,
		OutletDomain: i.OutletDomain,
		Niche:        string(i.Niche),
		Price:        i.Price.Amount(),
		Content: ContentResponse{
			Title:      i.Content.Title,
			Body:       i.Content.Body,
			FileKey:    i.Content.FileKey,
			TargetURL:  i.Content.TargetURL,
			AnchorText: i.Content.AnchorText,
			Notes:      i.Content.Notes,
		},
		Status:          string(i.Status),
		RejectionReason: i.RejectionReason,
		PublishedURL:    i.PublishedURL,
		PublishedAt:     i.PublishedAt,
	}
}

// ToOrderResponse maps an order to its response
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = toItemResponse(item)
	}
	counts := make(map[string]int)
	for status, n := range o.CountItems() {
		counts[string(status)] = n
	}
	return &OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		BuyerID:       o.BuyerID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Billing:       o.Billing,
		Items:         items,
		ItemCounts:    counts,
		Subtotal:      o.Subtotal.Amount(),
		Total:         o.Total.Amount(),
		Currency:      string(o.Currency),
		CanRetryPay:   o.CanRetryPayment(),
		PaidAt:        o.PaidAt,
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
		CancelReason:  o.CancelReason,
		RefundedAt:    o.RefundedAt,
		RefundReason:  o.RefundReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToPublisherItemResponse maps a publisher's view of an item
func ToPublisherItemResponse(pi order.PublisherItem) *PublisherItemResponse {
	return &PublisherItemResponse{
		ItemResponse: toItemResponse(pi.Item),
		OrderID:      pi.OrderID,
		OrderNumber:  pi.OrderNumber,
		OrderStatus:  string(pi.OrderStatus),
		OrderedAt:    pi.OrderedAt,
	}
}
