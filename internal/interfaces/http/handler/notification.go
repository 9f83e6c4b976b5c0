package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	notificationapp "github.com/linkmarket/backend/internal/application/notification"
	"github.com/linkmarket/backend/internal/domain/shared"
)

// Notifications serves a user's own notifications
type Notifications interface {
	List(ctx context.Context, userID uuid.UUID, q notificationapp.ListQuery) (shared.Paginated[*notificationapp.NotificationResponse], error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// NotificationHandler handles the notification inbox
type NotificationHandler struct {
	BaseHandler
	notifications Notifications
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications Notifications) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @ID           listNotifications
// @Summary      Notifications, newest first
// @Tags         notifications
// @Produce      json
// @Param        unread_only query bool false "Only unread"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]notificationapp.NotificationResponse]
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var q notificationapp.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.notifications.List(c.Request.Context(), userID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// UnreadCount godoc
// @ID           unreadNotificationCount
// @Summary      Number of unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	n, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: n})
}

// MarkRead godoc
// @ID           markNotificationRead
// @Summary      Mark one notification read
// @Tags         notifications
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	h.own(c, h.notifications.MarkRead)
}

// MarkAllRead godoc
// @ID           markAllNotificationsRead
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Success      200 {object} APIResponse[CountData]
// @Security     BearerAuth
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: n})
}

// Delete godoc
// @ID           deleteNotification
// @Summary      Delete a notification
// @Tags         notifications
// @Param        id path string true "Notification ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	h.own(c, h.notifications.Delete)
}

func (h *NotificationHandler) own(c *gin.Context, action func(ctx context.Context, userID, id uuid.UUID) error) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := action(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
