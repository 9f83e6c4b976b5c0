package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/notification"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormNotificationRepository(setupTestDB(t))
	userID, otherUser := uuid.New(), uuid.New()

	var batch []*notification.Notification
	for i, typ := range []notification.Type{notification.TypeOrderCreated, notification.TypeOrderPaid, notification.TypeItemAccepted} {
		n, err := notification.New(userID, typ, "Title", "Message", "/orders/1")
		require.NoError(t, err)
		n.CreatedAt = n.CreatedAt.Add(time.Duration(i) * time.Second)
		batch = append(batch, n)
	}
	foreign, err := notification.New(otherUser, notification.TypeOrderPaid, "Other", "", "")
	require.NoError(t, err)
	batch = append(batch, foreign)
	require.NoError(t, repo.SaveAll(ctx, batch))
	require.NoError(t, repo.SaveAll(ctx, nil))

	t.Run("lists newest first", func(t *testing.T) {
		got, total, err := repo.FindByUser(ctx, userID, notification.Filter{Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, got, 3)
		assert.Equal(t, notification.TypeItemAccepted, got[0].Type)

		count, err := repo.CountUnread(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("mark read is idempotent and scoped to the owner", func(t *testing.T) {
		at := shared.Now()
		require.NoError(t, repo.MarkRead(ctx, userID, batch[0].ID, at))
		require.NoError(t, repo.MarkRead(ctx, userID, batch[0].ID, at.Add(time.Hour)))
		assert.ErrorIs(t, repo.MarkRead(ctx, otherUser, batch[0].ID, at), shared.ErrNotFound)

		n, err := repo.FindByID(ctx, batch[0].ID)
		require.NoError(t, err)
		require.NotNil(t, n.ReadAt)
		assert.WithinDuration(t, at, *n.ReadAt, time.Second)

		unread, total, err := repo.FindByUser(ctx, userID, notification.Filter{Filter: shared.DefaultFilter(), UnreadOnly: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, unread, 2)
	})

	t.Run("mark all read", func(t *testing.T) {
		changed, err := repo.MarkAllRead(ctx, userID, shared.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(2), changed)

		count, err := repo.CountUnread(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = repo.CountUnread(ctx, otherUser)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(ctx, userID, foreign.ID), shared.ErrNotFound)
		require.NoError(t, repo.Delete(ctx, otherUser, foreign.ID))
		_, err := repo.FindByID(ctx, foreign.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
