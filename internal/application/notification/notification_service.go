package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/notification"
	"github.com/linkmarket/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var ErrNotificationNotFound = shared.NewDomainError("NOTIFICATION_NOT_FOUND", "Notification not found")

// ListQuery are the query parameters of the notification list
type ListQuery struct {
	UnreadOnly bool `form:"unread_only"`
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// NotificationResponse is the API view of a notification
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message,omitempty"`
	Link      string     `json:"link,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToNotificationResponse maps a notification to its API view
func ToNotificationResponse(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.IsRead(),
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationService serves a user's own notifications
type NotificationService struct {
	repo   notification.Repository
	logger *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo notification.Repository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, q ListQuery) (shared.Paginated[*NotificationResponse], error) {
	filter := notification.Filter{Filter: shared.DefaultFilter(), UnreadOnly: q.UnreadOnly}
	if q.Page > 0 {
		filter.Page = q.Page
	}
	if q.PageSize > 0 {
		filter.PageSize = q.PageSize
	}
	filter.Normalize()

	items, total, err := s.repo.FindByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[*NotificationResponse]{}, err
	}
	out := make([]*NotificationResponse, len(items))
	for i, n := range items {
		out[i] = ToNotificationResponse(n)
	}
	return shared.NewPaginated(out, total, filter.Page, filter.PageSize), nil
}

// UnreadCount returns how many notifications the user has not read
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.ownedOp(ctx, userID, id, func() error {
		return s.repo.MarkRead(ctx, userID, id, shared.Now())
	})
}

// MarkAllRead marks every unread notification of the user read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, shared.Now())
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Notifications marked read", zap.String("user_id", userID.String()), zap.Int64("count", n))
	return n, nil
}

// Delete removes one of the user's notifications
func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.ownedOp(ctx, userID, id, func() error {
		return s.repo.Delete(ctx, userID, id)
	})
}

// ownedOp hides other users' notifications behind not-found
func (s *NotificationService) ownedOp(ctx context.Context, userID, id uuid.UUID, op func() error) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if !n.IsOwnedBy(userID) {
		return ErrNotificationNotFound
	}
	if err := op(); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
