package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository_Lifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresNotificationRepository(db)
	ctx := context.Background()

	var created []*models.Notification
	for _, typ := range []string{models.NotificationFollow, models.NotificationFollowRequest, models.NotificationFollowAccepted} {
		n, err := repo.Create(ctx, models.NotificationJob{RecipientID: 1, ActorID: 2, Type: typ, Message: typ})
		require.NoError(t, err)
		require.NotZero(t, n.ID)
		created = append(created, n)
	}
	_, err := repo.Create(ctx, models.NotificationJob{RecipientID: 9, ActorID: 2, Type: models.NotificationSystem})
	require.NoError(t, err)

	unread, err := repo.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	require.NoError(t, repo.MarkAsRead(ctx, 1, created[0].ID))
	assert.ErrorIs(t, repo.MarkAsRead(ctx, 9, created[1].ID), models.ErrNotFound, "only the recipient may mark it")

	read := true
	list, total, err := repo.GetByRecipientID(ctx, 1, &read, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, created[0].ID, list[0].ID)

	all, total, err := repo.GetByRecipientID(ctx, 1, nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)

	n, err := repo.MarkAllAsRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.ErrorIs(t, repo.Delete(ctx, 9, created[2].ID), models.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, 1, created[2].ID))
	_, total, err = repo.GetByRecipientID(ctx, 1, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestNotificationRepository_GroupedAndRetention(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresNotificationRepository(db)
	ctx := context.Background()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows := []models.Notification{
		{RecipientID: 1, Type: models.NotificationFollow, CreatedAt: today.Add(time.Minute)},
		{RecipientID: 1, Type: models.NotificationFollow, CreatedAt: today.Add(-12 * time.Hour)},
		{RecipientID: 1, Type: models.NotificationFollow, CreatedAt: today.AddDate(0, 0, -3)},
		{RecipientID: 1, Type: models.NotificationFollow, CreatedAt: today.AddDate(0, 0, -40)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	groups, err := repo.GetGrouped(ctx, 1)
	require.NoError(t, err)
	require.Len(t, groups, 4)
	for i, period := range []string{"today", "yesterday", "this_week", "older"} {
		assert.Equal(t, period, groups[i].Period)
		require.Len(t, groups[i].Notifications, 1, period)
		assert.Equal(t, rows[i].ID, groups[i].Notifications[0].ID)
	}

	deleted, err := repo.DeleteCreatedBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeleteCreatedBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
