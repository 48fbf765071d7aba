package models

import "time"

// FollowRequestStatus is the lifecycle state of a follow request.
type FollowRequestStatus string

const (
	FollowRequestPending   FollowRequestStatus = "pending"
	FollowRequestAccepted  FollowRequestStatus = "accepted"
	FollowRequestRejected  FollowRequestStatus = "rejected"
	FollowRequestCancelled FollowRequestStatus = "cancelled"
)

// FollowRequest asks TargetID (a private profile) to accept RequesterID as a follower.
// At most one pending request exists per ordered pair; retired requests stay archived.
type FollowRequest struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	RequesterID uint                `json:"requester_id" gorm:"index;uniqueIndex:idx_follow_requests_pending,where:status = 'pending'"`
	TargetID    uint                `json:"target_id" gorm:"index;uniqueIndex:idx_follow_requests_pending,where:status = 'pending'"`
	Status      FollowRequestStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt   time.Time           `json:"created_at"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
}

// FollowRequestView is a pending request joined with the requester card.
type FollowRequestView struct {
	ID        uint        `json:"id"`
	Requester UserCompact `json:"requester"`
	CreatedAt time.Time   `json:"created_at"`
}
