package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for a notification
type NotificationModel struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1"`
	Type      notification.Type `gorm:"type:varchar(40);not null"`
	Title     string            `gorm:"type:varchar(200);not null"`
	Message   string            `gorm:"type:text;not null"`
	Link      string            `gorm:"type:varchar(500)"`
	ReadAt    *time.Time        `gorm:"index"`
	CreatedAt time.Time         `gorm:"not null;index:idx_notifications_user_created,priority:2"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Message:   m.Message,
		Link:      m.Link,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

// NotificationModelFromDomain creates a new persistence model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
