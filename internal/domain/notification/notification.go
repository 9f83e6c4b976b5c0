package notification

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Type classifies a notification
type Type string

const (
	TypeOrderCreated     Type = "order_created"
	TypeOrderPaid        Type = "order_paid"
	TypeOrderCancelled   Type = "order_cancelled"
	TypeOrderRefunded    Type = "order_refunded"
	TypeItemAccepted     Type = "item_accepted"
	TypeItemRejected     Type = "item_rejected"
	TypeItemPublished    Type = "item_published"
	TypeOrderCompleted   Type = "order_completed"
	TypeOrderNeedsReview Type = "order_needs_review"
	TypeOutletApproved   Type = "outlet_approved"
	TypeOutletSuspended  Type = "outlet_suspended"
	TypePaymentFailed    Type = "payment_failed"
)

// IsValid checks if the type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeOrderCreated, TypeOrderPaid, TypeOrderCancelled, TypeOrderRefunded,
		TypeItemAccepted, TypeItemRejected, TypeItemPublished, TypeOrderCompleted,
		TypeOrderNeedsReview, TypeOutletApproved, TypeOutletSuspended, TypePaymentFailed:
		return true
	}
	return false
}

const (
	maxTitleLength   = 200
	maxMessageLength = 2000
)

// Notification is a persisted message for one user
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      Type
	Title     string
	Message   string
	Link      string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// New creates an unread notification
func New(userID uuid.UUID, typ Type, title, message, link string) (*Notification, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Unknown notification type")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     truncate(title, maxTitleLength),
		Message:   truncate(strings.TrimSpace(message), maxMessageLength),
		Link:      link,
		CreatedAt: shared.Now(),
	}, nil
}

// IsRead reports whether the user has seen the notification
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// MarkRead stamps the read time once
func (n *Notification) MarkRead(at time.Time) {
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
}

// IsOwnedBy reports whether the notification belongs to the user
func (n *Notification) IsOwnedBy(userID uuid.UUID) bool {
	return n.UserID == userID
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
