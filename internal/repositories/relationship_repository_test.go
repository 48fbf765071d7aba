package repositories_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipRepository_SwapPairState(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresRelationshipRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, nil)
	b := testutil.CreateUser(t, db, nil)

	err := repo.SwapPairState(ctx, models.PairTransition{
		ActorID: a.ID, TargetID: b.ID,
		From: models.PairState{},
		To:   models.PairState{Following: true, RequestedBy: true},
	})
	require.NoError(t, err)

	state, err := repo.GetPairState(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PairState{Following: true, RequestedBy: true}, state)

	reverse, err := repo.GetPairState(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, state.Reverse(), reverse)

	// stale expectation
	err = repo.SwapPairState(ctx, models.PairTransition{
		ActorID: a.ID, TargetID: b.ID,
		From: models.PairState{},
		To:   models.PairState{Blocking: true},
	})
	assert.ErrorIs(t, err, models.ErrStateConflict)

	after, err := repo.GetPairState(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, state, after, "a conflicting swap writes nothing")

	err = repo.SwapPairState(ctx, models.PairTransition{
		ActorID: a.ID, TargetID: b.ID,
		From:    state,
		To:      models.PairState{Blocking: true},
		Outcome: models.FollowRequestCancelled,
	})
	require.NoError(t, err)

	var req models.FollowRequest
	require.NoError(t, db.Where("requester_id = ? AND target_id = ?", b.ID, a.ID).First(&req).Error)
	assert.Equal(t, models.FollowRequestCancelled, req.Status)
	assert.NotNil(t, req.ResolvedAt)
}

func TestRelationshipRepository_SwapRejectsInvalidTargets(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresRelationshipRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, nil)
	b := testutil.CreateUser(t, db, nil)

	err := repo.SwapPairState(ctx, models.PairTransition{
		ActorID: a.ID, TargetID: b.ID,
		To: models.PairState{Following: true, Blocking: true},
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	err = repo.SwapPairState(ctx, models.PairTransition{
		ActorID: a.ID, TargetID: b.ID,
		To: models.PairState{Following: true, Requested: true},
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	err = repo.SwapPairState(ctx, models.PairTransition{ActorID: a.ID, TargetID: a.ID, To: models.PairState{Following: true}})
	assert.ErrorIs(t, err, models.ErrSelfReference)

	err = repo.SwapPairState(ctx, models.PairTransition{ActorID: a.ID, TargetID: 4242, To: models.PairState{Following: true}})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestRelationshipRepository_RelationshipsAndFollowers(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresRelationshipRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, nil)
	x := testutil.CreateUser(t, db, nil)
	y := testutil.CreateUser(t, db, nil)
	z := testutil.CreateUser(t, db, nil)

	require.NoError(t, db.Create(&models.Follow{FollowerID: x.ID, FollowingID: u.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: u.ID, FollowingID: y.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: x.ID, FollowingID: y.ID}).Error)
	require.NoError(t, db.Create(&models.Block{BlockerID: u.ID, BlockedID: z.ID}).Error)
	require.NoError(t, db.Create(&models.Block{BlockerID: z.ID, BlockedID: u.ID}).Error)

	rel, err := repo.GetRelationships(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IDSet(x.ID), rel.Followers)
	assert.Equal(t, models.IDSet(y.ID), rel.Following)
	assert.Equal(t, models.IDSet(z.ID), rel.Blocked)
	assert.Equal(t, models.IDSet(z.ID), rel.BlockedBy)

	followers, err := repo.GetFollowerIDs(ctx, []uint{u.ID, y.ID, z.ID})
	require.NoError(t, err)
	assert.Equal(t, models.IDSet(x.ID), followers[u.ID])
	assert.Equal(t, models.IDSet(u.ID, x.ID), followers[y.ID])
	assert.Empty(t, followers[z.ID])

	empty, err := repo.GetFollowerIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRelationshipRepository_Listings(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresRelationshipRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, nil)
	f1 := testutil.CreateUser(t, db, nil)
	f2 := testutil.CreateUser(t, db, nil)
	gone := testutil.CreateUser(t, db, func(u *models.User) {
		now := time.Now()
		u.IsDeleted = true
		u.DeletedAt = &now
	})
	requester := testutil.CreateUser(t, db, nil)

	for _, id := range []uint{f1.ID, f2.ID, gone.ID} {
		require.NoError(t, db.Create(&models.Follow{FollowerID: id, FollowingID: owner.ID}).Error)
	}
	require.NoError(t, db.Create(&models.Follow{FollowerID: owner.ID, FollowingID: f1.ID}).Error)
	require.NoError(t, db.Create(&models.Block{BlockerID: owner.ID, BlockedID: f2.ID}).Error)
	require.NoError(t, db.Create(&models.FollowRequest{RequesterID: requester.ID, TargetID: owner.ID, Status: models.FollowRequestPending}).Error)
	require.NoError(t, db.Create(&models.FollowRequest{RequesterID: f1.ID, TargetID: owner.ID, Status: models.FollowRequestRejected}).Error)

	followers, total, err := repo.ListFollowers(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "deleted followers are hidden")
	assert.Len(t, followers, 2)

	page, total, err := repo.ListFollowers(ctx, owner.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 1)

	far, total, err := repo.ListFollowers(ctx, owner.ID, math.MaxInt, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, far, "an out-of-range page is empty, not page 1")

	following, total, err := repo.ListFollowing(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, f1.ID, following[0].ID)

	blocked, _, err := repo.ListBlocked(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, f2.Username, blocked[0].Username)

	requests, total, err := repo.ListPendingRequests(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, requests, 1)
	assert.Equal(t, requester.ID, requests[0].Requester.ID)

	pending, err := repo.GetPendingRequest(ctx, requester.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, requests[0].ID, pending.ID)

	_, err = repo.GetPendingRequest(ctx, f1.ID, owner.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRelationshipRepository_OnePendingRequestPerPair(t *testing.T) {
	db := testutil.NewTestDB(t)
	a := testutil.CreateUser(t, db, nil)
	b := testutil.CreateUser(t, db, nil)

	require.NoError(t, db.Create(&models.FollowRequest{RequesterID: a.ID, TargetID: b.ID, Status: models.FollowRequestPending}).Error)
	err := db.Create(&models.FollowRequest{RequesterID: a.ID, TargetID: b.ID, Status: models.FollowRequestPending}).Error
	assert.Error(t, err, "partial unique index rejects a second pending request")

	require.NoError(t, db.Create(&models.FollowRequest{RequesterID: a.ID, TargetID: b.ID, Status: models.FollowRequestCancelled}).Error)
	require.NoError(t, db.Create(&models.FollowRequest{RequesterID: a.ID, TargetID: b.ID, Status: models.FollowRequestRejected}).Error)
}

func TestPaginate_Normalizes(t *testing.T) {
	page, limit := repositories.NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	page, limit = repositories.NormalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)

	page, limit = repositories.NormalizePage(math.MaxInt, 100)
	assert.Equal(t, math.MaxInt/100, page)
	assert.Positive(t, (page-1)*limit, "offset must not overflow")
}
