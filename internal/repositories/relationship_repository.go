package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository stores follow edges, blocks and follow requests.
type RelationshipRepository interface {
	GetPairState(ctx context.Context, userID, otherID uint) (models.PairState, error)
	SwapPairState(ctx context.Context, t models.PairTransition) error
	GetRelationships(ctx context.Context, userID uint) (*models.Relationships, error)
	GetFollowerIDs(ctx context.Context, userIDs []uint) (map[uint]map[uint]struct{}, error)
	GetPendingRequest(ctx context.Context, requesterID, targetID uint) (*models.FollowRequest, error)
	ListPendingRequests(ctx context.Context, targetID uint, page, limit int) ([]models.FollowRequestView, int64, error)
	ListFollowers(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error)
	ListFollowing(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error)
	ListBlocked(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error)
}

// PostgresRelationshipRepository implements RelationshipRepository for PostgreSQL
type PostgresRelationshipRepository struct {
	db *gorm.DB
}

var _ RelationshipRepository = (*PostgresRelationshipRepository)(nil)

// NewPostgresRelationshipRepository creates a new PostgresRelationshipRepository
func NewPostgresRelationshipRepository(db *gorm.DB) *PostgresRelationshipRepository {
	return &PostgresRelationshipRepository{db: db}
}

func (r *PostgresRelationshipRepository) GetPairState(ctx context.Context, userID, otherID uint) (models.PairState, error) {
	state, err := readPairState(r.db.WithContext(ctx), userID, otherID)
	return state, storeError("get pair state", err)
}

// SwapPairState applies t atomically. Both user rows are locked in id order,
// the pair is re-read and compared with t.From; a mismatch aborts with
// models.ErrStateConflict and nothing is written.
func (r *PostgresRelationshipRepository) SwapPairState(ctx context.Context, t models.PairTransition) error {
	if t.ActorID == t.TargetID {
		return fmt.Errorf("swap pair state: %w", models.ErrSelfReference)
	}
	if !t.To.Valid() {
		return fmt.Errorf("swap pair state: %w", models.ErrInvalidTransition)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUsers(tx, t.ActorID, t.TargetID); err != nil {
			return err
		}

		current, err := readPairState(tx, t.ActorID, t.TargetID)
		if err != nil {
			return err
		}
		if current != t.From {
			return models.ErrStateConflict
		}

		a, b := t.ActorID, t.TargetID
		if err := setFollow(tx, a, b, t.From.Following, t.To.Following); err != nil {
			return err
		}
		if err := setFollow(tx, b, a, t.From.FollowedBy, t.To.FollowedBy); err != nil {
			return err
		}
		if err := setBlock(tx, a, b, t.From.Blocking, t.To.Blocking); err != nil {
			return err
		}
		if err := setBlock(tx, b, a, t.From.BlockedBy, t.To.BlockedBy); err != nil {
			return err
		}

		now := time.Now()
		if err := setRequest(tx, a, b, t.From.Requested, t.To.Requested, t.Outcome, now); err != nil {
			return err
		}
		return setRequest(tx, b, a, t.From.RequestedBy, t.To.RequestedBy, t.Outcome, now)
	})
	return storeError("swap pair state", err)
}

func lockUsers(tx *gorm.DB, a, b uint) error {
	ids := []uint{a, b}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var locked []uint
	if err := tx.Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &locked).Error; err != nil {
		return err
	}
	if len(locked) != len(ids) {
		return models.ErrUserNotFound
	}
	return nil
}

func readPairState(db *gorm.DB, a, b uint) (models.PairState, error) {
	var state models.PairState

	var follows []models.Follow
	if err := db.Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)", a, b, b, a).
		Find(&follows).Error; err != nil {
		return state, err
	}
	for _, f := range follows {
		if f.FollowerID == a {
			state.Following = true
		} else {
			state.FollowedBy = true
		}
	}

	var blocks []models.Block
	if err := db.Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Find(&blocks).Error; err != nil {
		return state, err
	}
	for _, bl := range blocks {
		if bl.BlockerID == a {
			state.Blocking = true
		} else {
			state.BlockedBy = true
		}
	}

	var requests []models.FollowRequest
	if err := db.Where("status = ? AND ((requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?))",
		models.FollowRequestPending, a, b, b, a).
		Find(&requests).Error; err != nil {
		return state, err
	}
	for _, req := range requests {
		if req.RequesterID == a {
			state.Requested = true
		} else {
			state.RequestedBy = true
		}
	}

	return state, nil
}

func setFollow(tx *gorm.DB, follower, following uint, from, to bool) error {
	switch {
	case from == to:
		return nil
	case to:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: follower, FollowingID: following}).Error
	default:
		return tx.Where("follower_id = ? AND following_id = ?", follower, following).
			Delete(&models.Follow{}).Error
	}
}

func setBlock(tx *gorm.DB, blocker, blocked uint, from, to bool) error {
	switch {
	case from == to:
		return nil
	case to:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Block{BlockerID: blocker, BlockedID: blocked}).Error
	default:
		return tx.Where("blocker_id = ? AND blocked_id = ?", blocker, blocked).
			Delete(&models.Block{}).Error
	}
}

func setRequest(tx *gorm.DB, requester, target uint, from, to bool, outcome models.FollowRequestStatus, now time.Time) error {
	switch {
	case from == to:
		return nil
	case to:
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.FollowRequest{
				RequesterID: requester,
				TargetID:    target,
				Status:      models.FollowRequestPending,
			}).Error
	default:
		if outcome == "" || outcome == models.FollowRequestPending {
			outcome = models.FollowRequestCancelled
		}
		return tx.Model(&models.FollowRequest{}).
			Where("requester_id = ? AND target_id = ? AND status = ?", requester, target, models.FollowRequestPending).
			Updates(map[string]any{"status": outcome, "resolved_at": now}).Error
	}
}

func (r *PostgresRelationshipRepository) GetRelationships(ctx context.Context, userID uint) (*models.Relationships, error) {
	db := r.db.WithContext(ctx)
	rel := models.NewRelationships(userID)

	var ids []uint
	if err := db.Model(&models.Follow{}).Where("following_id = ?", userID).Pluck("follower_id", &ids).Error; err != nil {
		return nil, storeError("get relationships", err)
	}
	rel.Followers = models.IDSet(ids...)

	ids = nil
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error; err != nil {
		return nil, storeError("get relationships", err)
	}
	rel.Following = models.IDSet(ids...)

	ids = nil
	if err := db.Model(&models.Block{}).Where("blocker_id = ?", userID).Pluck("blocked_id", &ids).Error; err != nil {
		return nil, storeError("get relationships", err)
	}
	rel.Blocked = models.IDSet(ids...)

	ids = nil
	if err := db.Model(&models.Block{}).Where("blocked_id = ?", userID).Pluck("blocker_id", &ids).Error; err != nil {
		return nil, storeError("get relationships", err)
	}
	rel.BlockedBy = models.IDSet(ids...)

	return rel, nil
}

// GetFollowerIDs returns the follower set of every user in userIDs.
// Users without followers map to an empty set.
func (r *PostgresRelationshipRepository) GetFollowerIDs(ctx context.Context, userIDs []uint) (map[uint]map[uint]struct{}, error) {
	out := make(map[uint]map[uint]struct{}, len(userIDs))
	for _, id := range userIDs {
		out[id] = map[uint]struct{}{}
	}
	if len(userIDs) == 0 {
		return out, nil
	}

	var edges []models.Follow
	err := r.db.WithContext(ctx).
		Select("follower_id", "following_id").
		Where("following_id IN ?", userIDs).
		Find(&edges).Error
	if err != nil {
		return nil, storeError("get follower ids", err)
	}
	for _, e := range edges {
		out[e.FollowingID][e.FollowerID] = struct{}{}
	}
	return out, nil
}

func (r *PostgresRelationshipRepository) GetPendingRequest(ctx context.Context, requesterID, targetID uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, models.FollowRequestPending).
		First(&req).Error
	if err != nil {
		return nil, storeError("get pending request", err)
	}
	return &req, nil
}

func (r *PostgresRelationshipRepository) ListPendingRequests(ctx context.Context, targetID uint, page, limit int) ([]models.FollowRequestView, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.FollowRequest{}).
			Joins("JOIN users ON users.id = follow_requests.requester_id").
			Where("follow_requests.target_id = ? AND follow_requests.status = ? AND users.is_deleted = ?",
				targetID, models.FollowRequestPending, false)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, storeError("list pending requests", err)
	}

	var requests []models.FollowRequest
	if err := base().Select("follow_requests.*").
		Order("follow_requests.created_at DESC, follow_requests.id DESC").
		Scopes(Paginate(page, limit)).
		Find(&requests).Error; err != nil {
		return nil, 0, storeError("list pending requests", err)
	}
	if len(requests) == 0 {
		return []models.FollowRequestView{}, total, nil
	}

	requesterIDs := make([]uint, 0, len(requests))
	for _, req := range requests {
		requesterIDs = append(requesterIDs, req.RequesterID)
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", requesterIDs).Find(&users).Error; err != nil {
		return nil, 0, storeError("list pending requests", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]models.FollowRequestView, 0, len(requests))
	for _, req := range requests {
		u := byID[req.RequesterID]
		views = append(views, models.FollowRequestView{
			ID:        req.ID,
			Requester: u.ToCompact(),
			CreatedAt: req.CreatedAt,
		})
	}
	return views, total, nil
}

func (r *PostgresRelationshipRepository) ListFollowers(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error) {
	return r.listUsers(ctx, "list followers",
		"JOIN follows ON follows.follower_id = users.id", "follows.following_id = ?", "follows.created_at",
		userID, page, limit)
}

func (r *PostgresRelationshipRepository) ListFollowing(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error) {
	return r.listUsers(ctx, "list following",
		"JOIN follows ON follows.following_id = users.id", "follows.follower_id = ?", "follows.created_at",
		userID, page, limit)
}

func (r *PostgresRelationshipRepository) ListBlocked(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error) {
	return r.listUsers(ctx, "list blocked",
		"JOIN blocks ON blocks.blocked_id = users.id", "blocks.blocker_id = ?", "blocks.created_at",
		userID, page, limit)
}

func (r *PostgresRelationshipRepository) listUsers(ctx context.Context, op, join, cond, orderCol string, userID uint, page, limit int) ([]models.UserCompact, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.User{}).
			Joins(join).
			Where(cond, userID).
			Where("users.is_deleted = ?", false)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, storeError(op, err)
	}

	var users []models.User
	if err := base().Select("users.*").
		Order(orderCol + " DESC, users.id").
		Scopes(Paginate(page, limit)).
		Find(&users).Error; err != nil {
		return nil, 0, storeError(op, err)
	}

	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out, total, nil
}
