package order

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

const maxReasonLength = 1000

// Content is the article the buyer supplied for a placement
type Content struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	FileKey    string `json:"file_key,omitempty"`
	TargetURL  string `json:"target_url"`
	AnchorText string `json:"anchor_text"`
	Notes      string `json:"notes,omitempty"`
}

// Item is one placement on one outlet (an order_items row)
type Item struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	OutletID        uuid.UUID
	PublisherID     uuid.UUID
	OutletName      string
	OutletDomain    string
	Niche           catalog.Niche
	Price           valueobject.Money
	Content         Content
	Status          ItemStatus
	RejectionReason string
	PublishedURL    string
	PublishedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *Item) transitionTo(target ItemStatus) error {
	if !i.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_ITEM_TRANSITION",
			"Cannot move item from "+string(i.Status)+" to "+string(target))
	}
	i.Status = target
	i.UpdatedAt = shared.Now()
	return nil
}

func (i *Item) accept() error {
	return i.transitionTo(ItemStatusAccepted)
}

func (i *Item) reject(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectReasonMissing
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return shared.NewDomainError("INVALID_REASON", "Reason cannot exceed 1000 characters")
	}
	if err := i.transitionTo(ItemStatusRejected); err != nil {
		return err
	}
	i.RejectionReason = reason
	return nil
}

// publish records the live article URL; its host must be the outlet domain or a subdomain of it
func (i *Item) publish(rawURL string) error {
	u, err := shared.ParseHTTPURL(strings.TrimSpace(rawURL))
	if err != nil {
		return err
	}
	if !catalog.HostBelongsTo(u.Hostname(), i.OutletDomain) {
		return ErrPublishURLMismatch
	}
	if err := i.transitionTo(ItemStatusPublished); err != nil {
		return err
	}
	now := i.UpdatedAt
	i.PublishedURL = u.String()
	i.PublishedAt = &now
	return nil
}
