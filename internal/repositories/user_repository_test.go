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

func TestUserRepository_GetAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	ctx := context.Background()
	uid := "firebase-uid-1"
	u := testutil.CreateUser(t, db, func(u *models.User) {
		u.FirebaseUID = &uid
		u.Interests = []string{"music", "art"}
	})

	got, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"music", "art"}, got.Interests)
	assert.True(t, got.NotifyOnFollow)

	byUID, err := repo.GetUserByFirebaseUID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byUID.ID)

	_, err = repo.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	_, err = repo.GetUserByFirebaseUID(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	got.Bio = "hello"
	got.NotifyOnFollow = false
	require.NoError(t, repo.UpdateUser(ctx, got))

	again, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Bio)
	assert.False(t, again.NotifyOnFollow)
}

func TestUserRepository_CreateKeepsFalseSettings(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	ctx := context.Background()

	quiet := models.NewUser("quiet", "quiet@example.com")
	quiet.NotifyOnFollow = false
	require.NoError(t, repo.CreateUser(ctx, quiet))

	got, err := repo.GetUserByID(ctx, quiet.ID)
	require.NoError(t, err)
	assert.False(t, got.NotifyOnFollow)
	assert.False(t, got.ShowLocation)
	assert.False(t, got.ShowEmail)

	loud := models.NewUser("loud", "loud@example.com")
	require.NoError(t, repo.CreateUser(ctx, loud))
	got, err = repo.GetUserByID(ctx, loud.ID)
	require.NoError(t, err)
	assert.True(t, got.NotifyOnFollow)
	assert.Equal(t, models.VisibilityPublic, got.ProfileVisibility)
}

func TestUserRepository_SoftDeleteAndPurge(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresUserRepository(db)
	ctx := context.Background()
	now := time.Now()

	u := testutil.CreateUser(t, db, nil)
	other := testutil.CreateUser(t, db, nil)

	deletedAt := now.Add(-31 * 24 * time.Hour)
	require.NoError(t, repo.SoftDelete(ctx, u.ID, deletedAt))
	// a second request keeps the original timestamp
	require.NoError(t, repo.SoftDelete(ctx, u.ID, now))
	assert.ErrorIs(t, repo.SoftDelete(ctx, 12345, now), models.ErrUserNotFound)

	active, err := repo.ListActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, other.ID, active[0].ID)

	cutoff := now.Add(-30 * 24 * time.Hour)
	ids, err := repo.FindPurgeable(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []uint{u.ID}, ids)

	ok, err := repo.IsPurgeable(ctx, other.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, ok)

	// too recent for an older cutoff
	purged, err := repo.PurgeUser(ctx, u.ID, now.Add(-60*24*time.Hour))
	require.NoError(t, err)
	assert.False(t, purged)

	purged, err = repo.PurgeUser(ctx, u.ID, cutoff)
	require.NoError(t, err)
	assert.True(t, purged)

	purged, err = repo.PurgeUser(ctx, u.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, purged, "second purge is a no-op")
}
