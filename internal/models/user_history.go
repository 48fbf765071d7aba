package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHistory is one append-only audit entry (MongoDB, user_histories).
type UserHistory struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	Field     string             `json:"field" bson:"field"`
	OldValue  string             `json:"old_value,omitempty" bson:"old_value,omitempty"`
	NewValue  string             `json:"new_value,omitempty" bson:"new_value,omitempty"`
	IPAddress string             `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	Device    string             `json:"device,omitempty" bson:"device,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
