package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userHistoryCollection = "user_histories"

// UserHistoryRepository is the append-only audit trail stored in MongoDB.
type UserHistoryRepository interface {
	Append(ctx context.Context, entry *models.UserHistory) error
	ListByUser(ctx context.Context, userID uint, limit int64) ([]models.UserHistory, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}

type userHistoryRepository struct {
	collection *mongo.Collection
}

func NewUserHistoryRepository(mongoDB *mongo.Database) UserHistoryRepository {
	return &userHistoryRepository{collection: mongoDB.Collection(userHistoryCollection)}
}

func (r *userHistoryRepository) Append(ctx context.Context, entry *models.UserHistory) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("append user history: %w: %w", models.ErrStoreUnavailable, err)
	}
	return nil
}

// ListByUser returns the newest entries first.
func (r *userHistoryRepository) ListByUser(ctx context.Context, userID uint, limit int64) ([]models.UserHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list user history: %w: %w", models.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	entries := []models.UserHistory{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("list user history: %w: %w", models.ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (r *userHistoryRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete user history: %w: %w", models.ErrStoreUnavailable, err)
	}
	return res.DeletedCount, nil
}
