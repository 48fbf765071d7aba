package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	ListActiveUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	FindPurgeable(ctx context.Context, cutoff time.Time) ([]uint, error)
	IsPurgeable(ctx context.Context, id uint, cutoff time.Time) (bool, error)
	PurgeUser(ctx context.Context, id uint, cutoff time.Time) (bool, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*PostgresUserRepository)(nil)

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return storeError("create user", r.db.WithContext(ctx).Create(user).Error)
}

// GetUserByID retrieves a user by ID, soft-deleted rows included.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, userError("get user", err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, userError("get user by firebase uid", err)
	}
	return &user, nil
}

// ListActiveUsers returns every user that is not soft-deleted.
func (r *PostgresUserRepository) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("is_deleted = ?", false).Order("id").Find(&users).Error; err != nil {
		return nil, storeError("list active users", err)
	}
	return users, nil
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return storeError("update user", r.db.WithContext(ctx).Save(user).Error)
}

// SoftDelete flags the account for permanent deletion. Already deleted
// accounts keep their original DeletedAt.
func (r *PostgresUserRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{"is_deleted": true, "deleted_at": at})
	if res.Error != nil {
		return storeError("soft delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetUserByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func purgeable(db *gorm.DB, cutoff time.Time) *gorm.DB {
	return db.Where("is_deleted = ? AND deleted_at IS NOT NULL AND deleted_at <= ?", true, cutoff)
}

// FindPurgeable lists soft-deleted users whose DeletedAt is at or before cutoff.
func (r *PostgresUserRepository) FindPurgeable(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := purgeable(r.db.WithContext(ctx).Model(&models.User{}), cutoff).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, storeError("find purgeable users", err)
	}
	return ids, nil
}

func (r *PostgresUserRepository) IsPurgeable(ctx context.Context, id uint, cutoff time.Time) (bool, error) {
	var count int64
	err := purgeable(r.db.WithContext(ctx).Model(&models.User{}), cutoff).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, storeError("check purgeable user", err)
	}
	return count > 0, nil
}

var errNotPurgeable = errors.New("user is no longer purgeable")

// PurgeUser deletes the user row and every edge, request and notification
// referencing it in one transaction. It reports false without error when the
// user stopped matching the purge predicate.
func (r *PostgresUserRepository) PurgeUser(ctx context.Context, id uint, cutoff time.Time) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := purgeable(tx, cutoff).Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotPurgeable
		}

		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blocker_id = ? OR blocked_id = ?", id, id).Delete(&models.Block{}).Error; err != nil {
			return err
		}
		if err := tx.Where("requester_id = ? OR target_id = ?", id, id).Delete(&models.FollowRequest{}).Error; err != nil {
			return err
		}
		return tx.Where("recipient_id = ? OR actor_id = ?", id, id).Delete(&models.Notification{}).Error
	})
	if errors.Is(err, errNotPurgeable) {
		return false, nil
	}
	if err != nil {
		return false, storeError("purge user", err)
	}
	return true, nil
}

func userError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrUserNotFound
	}
	return storeError(op, err)
}
