package models

import "time"

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Block hides BlockedID from BlockerID and severs their follow edges.
type Block struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlockerID uint      `json:"blocker_id" gorm:"index;uniqueIndex:idx_blocker_blocked"`
	BlockedID uint      `json:"blocked_id" gorm:"index;uniqueIndex:idx_blocker_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationStatus is the state of an ordered pair (viewer -> target).
type RelationStatus string

const (
	StatusNone      RelationStatus = "none"
	StatusRequested RelationStatus = "requested"
	StatusFollowing RelationStatus = "following"
	StatusBlocked   RelationStatus = "blocked"
)

// PairState is the complete relationship between A and B as seen from A.
type PairState struct {
	Following   bool // A follows B
	FollowedBy  bool // B follows A
	Blocking    bool // A blocks B
	BlockedBy   bool // B blocks A
	Requested   bool // pending request A -> B
	RequestedBy bool // pending request B -> A
}

// Status collapses the pair into the A -> B state machine value.
func (p PairState) Status() RelationStatus {
	switch {
	case p.Blocking || p.BlockedBy:
		return StatusBlocked
	case p.Following:
		return StatusFollowing
	case p.Requested:
		return StatusRequested
	default:
		return StatusNone
	}
}

// Reverse returns the same pair seen from B.
func (p PairState) Reverse() PairState {
	return PairState{
		Following:   p.FollowedBy,
		FollowedBy:  p.Following,
		Blocking:    p.BlockedBy,
		BlockedBy:   p.Blocking,
		Requested:   p.RequestedBy,
		RequestedBy: p.Requested,
	}
}

// Valid reports whether the state satisfies the graph invariants.
func (p PairState) Valid() bool {
	blocked := p.Blocking || p.BlockedBy
	if blocked && (p.Following || p.FollowedBy || p.Requested || p.RequestedBy) {
		return false
	}
	// a pending request never coexists with the edge it asks for
	if (p.Following && p.Requested) || (p.FollowedBy && p.RequestedBy) {
		return false
	}
	return true
}

// PairTransition moves the pair (ActorID, TargetID) from From to To.
type PairTransition struct {
	ActorID  uint
	TargetID uint
	From     PairState
	To       PairState
	// Outcome is written to every pending request the transition retires.
	Outcome FollowRequestStatus
}

// Relationships is a snapshot of one user's relationship sets.
type Relationships struct {
	UserID    uint
	Followers map[uint]struct{}
	Following map[uint]struct{}
	Blocked   map[uint]struct{}
	BlockedBy map[uint]struct{}
}

// NewRelationships returns an empty snapshot for userID.
func NewRelationships(userID uint) *Relationships {
	return &Relationships{
		UserID:    userID,
		Followers: map[uint]struct{}{},
		Following: map[uint]struct{}{},
		Blocked:   map[uint]struct{}{},
		BlockedBy: map[uint]struct{}{},
	}
}

// UserNode joins a user row with its relationship sets for ranking.
type UserNode struct {
	User      *User
	Following map[uint]struct{}
	Followers map[uint]struct{}
}

// IDSet builds a set from ids.
func IDSet(ids ...uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
