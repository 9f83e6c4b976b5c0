package identity

import (
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Aggregate type constant for Profile
const AggregateTypeProfile = "Profile"

// Profile domain event types
const (
	EventTypeProfileRegistered    = "ProfileRegistered"
	EventTypeProfileStatusChanged = "ProfileStatusChanged"
)

// ProfileRegisteredEvent is published when an account is created
type ProfileRegisteredEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewProfileRegisteredEvent creates a new ProfileRegisteredEvent
func NewProfileRegisteredEvent(p *Profile) *ProfileRegisteredEvent {
	return &ProfileRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileRegistered, AggregateTypeProfile, p.ID),
		Email:           p.Email,
		Role:            p.Role,
	}
}

// ProfileStatusChangedEvent is published when an admin suspends or re-activates a profile
type ProfileStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus ProfileStatus `json:"old_status"`
	NewStatus ProfileStatus `json:"new_status"`
}

// NewProfileStatusChangedEvent creates a new ProfileStatusChangedEvent
func NewProfileStatusChangedEvent(p *Profile, old ProfileStatus) *ProfileStatusChangedEvent {
	return &ProfileStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProfileStatusChanged, AggregateTypeProfile, p.ID),
		OldStatus:       old,
		NewStatus:       p.Status,
	}
}
