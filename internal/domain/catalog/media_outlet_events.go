package catalog

import (
	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant for MediaOutlet
const AggregateTypeMediaOutlet = "MediaOutlet"

// MediaOutlet domain event types
const (
	EventTypeOutletCreated       = "OutletCreated"
	EventTypeOutletPriceChanged  = "OutletPriceChanged"
	EventTypeOutletStatusChanged = "OutletStatusChanged"
)

// OutletCreatedEvent is published when a publisher lists a new outlet
type OutletCreatedEvent struct {
	shared.BaseDomainEvent
	PublisherID uuid.UUID `json:"publisher_id"`
	Domain      string    `json:"domain"`
}

// NewOutletCreatedEvent creates a new OutletCreatedEvent
func NewOutletCreatedEvent(o *MediaOutlet) *OutletCreatedEvent {
	return &OutletCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOutletCreated, AggregateTypeMediaOutlet, o.ID),
		PublisherID:     o.PublisherID,
		Domain:          o.Domain,
	}
}

// OutletPriceChangedEvent is published when the base price changes
type OutletPriceChangedEvent struct {
	shared.BaseDomainEvent
	OldPrice valueobject.Money `json:"old_price"`
	NewPrice valueobject.Money `json:"new_price"`
}

// NewOutletPriceChangedEvent creates a new OutletPriceChangedEvent
func NewOutletPriceChangedEvent(o *MediaOutlet, old valueobject.Money) *OutletPriceChangedEvent {
	return &OutletPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOutletPriceChanged, AggregateTypeMediaOutlet, o.ID),
		OldPrice:        old,
		NewPrice:        o.BasePrice,
	}
}

// OutletStatusChangedEvent is published on approval, suspension and reactivation
type OutletStatusChangedEvent struct {
	shared.BaseDomainEvent
	PublisherID uuid.UUID    `json:"publisher_id"`
	Domain      string       `json:"domain"`
	OldStatus   OutletStatus `json:"old_status"`
	NewStatus   OutletStatus `json:"new_status"`
	Reason      string       `json:"reason,omitempty"`
}

// NewOutletStatusChangedEvent creates a new OutletStatusChangedEvent
func NewOutletStatusChangedEvent(o *MediaOutlet, old OutletStatus, reason string) *OutletStatusChangedEvent {
	return &OutletStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOutletStatusChanged, AggregateTypeMediaOutlet, o.ID),
		PublisherID:     o.PublisherID,
		Domain:          o.Domain,
		OldStatus:       old,
		NewStatus:       o.Status,
		Reason:          reason,
	}
}
