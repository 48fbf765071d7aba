package services

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

func TestProfiles_UpdateRecordsChangedFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	history := &recordingHistory{}
	profiles := NewProfiles(repositories.NewPostgresUserRepository(db), history, testutil.MakeNoopLogger())
	u := testutil.CreateUser(t, db, func(u *models.User) {
		u.Bio = "old bio"
		u.Interests = []string{"music"}
	})

	ctx := WithClientInfo(context.Background(), ClientInfo{IP: "198.51.100.4", UserAgent: "web"})
	got, err := profiles.Update(ctx, u.ID, models.UpdateUserRequest{
		Bio:       "new bio",
		Interests: []string{" chess", "music", "chess"},
		Longitude: testutil.Float(3.4),
		Latitude:  testutil.Float(6.5),
	})
	require.NoError(t, err)
	assert.Equal(t, "new bio", got.Bio)
	assert.Equal(t, []string{"chess", "music"}, got.Interests)

	stored, err := profiles.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.Coordinates{Lon: 3.4, Lat: 6.5}, stored.Coordinates())

	require.Len(t, history.entries, 3)
	assert.Equal(t, "bio", history.entries[0].Field)
	assert.Equal(t, "old bio", history.entries[0].OldValue)
	assert.Equal(t, "interests", history.entries[1].Field)
	assert.Equal(t, "chess,music", history.entries[1].NewValue)
	assert.Equal(t, "location", history.entries[2].Field)
	assert.Equal(t, "3.4,6.5", history.entries[2].NewValue)
	assert.Equal(t, "198.51.100.4", history.entries[0].IPAddress)

	// unchanged values write nothing
	_, err = profiles.Update(ctx, u.ID, models.UpdateUserRequest{Bio: "new bio"})
	require.NoError(t, err)
	assert.Len(t, history.entries, 3)
}

func TestProfiles_UpdatePrivacy(t *testing.T) {
	db := testutil.NewTestDB(t)
	history := &recordingHistory{}
	profiles := NewProfiles(repositories.NewPostgresUserRepository(db), history, testutil.MakeNoopLogger())
	u := testutil.CreateUser(t, db, nil)

	off, on := false, true
	got, err := profiles.UpdatePrivacy(context.Background(), u.ID, models.UpdatePrivacyRequest{
		ProfileVisibility: models.VisibilityPrivate,
		NotifyOnFollow:    &off,
		ShowLocation:      &on,
		ShowEmail:         &off,
	})
	require.NoError(t, err)
	assert.True(t, got.IsPrivate())
	assert.False(t, got.NotifyOnFollow)
	assert.True(t, got.ShowLocation)

	stored, err := profiles.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPrivate())
	assert.False(t, stored.NotifyOnFollow)
	assert.True(t, stored.ShowLocation)
	assert.False(t, stored.ShowEmail)
	// show_email was already off
	assert.Len(t, history.entries, 3)
}

func TestProfiles_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	history := &recordingHistory{}
	users := repositories.NewPostgresUserRepository(db)
	profiles := NewProfiles(users, history, testutil.MakeNoopLogger())
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	profiles.now = func() time.Time { return at }
	u := testutil.CreateUser(t, db, nil)

	require.NoError(t, profiles.Delete(context.Background(), u.ID))

	raw, err := users.GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, raw.IsDeleted)
	require.NotNil(t, raw.DeletedAt)
	assert.True(t, at.Equal(*raw.DeletedAt))

	_, err = profiles.Get(context.Background(), u.ID)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.ErrorIs(t, profiles.Delete(context.Background(), u.ID), models.ErrUserNotFound)
	require.Len(t, history.entries, 1)
	assert.Equal(t, "account", history.entries[0].Field)
}
