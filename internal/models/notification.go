package models

import "time"

// Notification types
const (
	NotificationFollow         = "follow"
	NotificationFollowRequest  = "follow_request"
	NotificationFollowAccepted = "follow_accepted"
	NotificationSystem         = "system"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RecipientID  uint      `json:"recipient_id" gorm:"index"`
	ActorID      uint      `json:"actor_id" gorm:"index"`
	Type         string    `json:"type" gorm:"size:30;index"`
	Message      string    `json:"message"`
	RelatedID    string    `json:"related_id"`
	RelatedModel string    `json:"related_model" gorm:"size:20"` // User, FollowRequest
	IsRead       bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// NotificationJob is one unit of work for the notification dispatcher.
type NotificationJob struct {
	RecipientID  uint
	ActorID      uint
	Type         string
	Message      string
	RelatedID    string
	RelatedModel string
}

// ToNotification builds the row persisted for the job.
func (j NotificationJob) ToNotification() *Notification {
	return &Notification{
		RecipientID:  j.RecipientID,
		ActorID:      j.ActorID,
		Type:         j.Type,
		Message:      j.Message,
		RelatedID:    j.RelatedID,
		RelatedModel: j.RelatedModel,
	}
}

// NotificationGroup buckets notifications by age for the inbox view.
type NotificationGroup struct {
	Period        string         `json:"period"`
	Notifications []Notification `json:"notifications"`
}
