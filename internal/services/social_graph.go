package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/nano-social/backend/internal/dispatcher"
	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
)

// NotificationQueue accepts notification jobs without blocking the caller.
type NotificationQueue interface {
	Enqueue(job models.NotificationJob) *dispatcher.Result
}

// HistoryRecorder appends audit entries.
type HistoryRecorder interface {
	Append(ctx context.Context, entry *models.UserHistory) error
}

type SocialGraphOptions struct {
	// FollowLimit follows or requests per actor per FollowWindow. Zero disables.
	FollowLimit  int
	FollowWindow time.Duration
	// MaxAttempts bounds retries of a transition that lost a race.
	MaxAttempts int
}

func DefaultSocialGraphOptions() SocialGraphOptions {
	return SocialGraphOptions{FollowLimit: 50, FollowWindow: time.Hour, MaxAttempts: 3}
}

// SocialGraph enforces the follow/request/block state machine.
type SocialGraph struct {
	relationships repositories.RelationshipRepository
	users         repositories.UserRepository
	queue         NotificationQueue
	history       HistoryRecorder
	log           *logger.Logger

	locks       *pairLocks
	limiter     *actorLimiter
	maxAttempts int
}

func NewSocialGraph(
	relationships repositories.RelationshipRepository,
	users repositories.UserRepository,
	queue NotificationQueue,
	history HistoryRecorder,
	log *logger.Logger,
	opts SocialGraphOptions,
) *SocialGraph {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &SocialGraph{
		relationships: relationships,
		users:         users,
		queue:         queue,
		history:       history,
		log:           log.With("component", "social_graph"),
		locks:         newPairLocks(),
		limiter:       newActorLimiter(opts.FollowLimit, opts.FollowWindow),
		maxAttempts:   opts.MaxAttempts,
	}
}

// plan computes the target state from the current one. Returning from
// unchanged means nothing to write.
type plan func(from models.PairState) (to models.PairState, outcome models.FollowRequestStatus, err error)

// apply runs read, plan and compare-and-swap for the ordered pair, retrying
// when another writer changed the pair in between.
func (g *SocialGraph) apply(ctx context.Context, actorID, targetID uint, p plan) (models.PairState, models.PairState, error) {
	for attempt := 1; ; attempt++ {
		from, err := g.relationships.GetPairState(ctx, actorID, targetID)
		if err != nil {
			return from, from, err
		}
		to, outcome, err := p(from)
		if err != nil {
			return from, from, err
		}
		if to == from {
			return from, to, nil
		}

		err = g.relationships.SwapPairState(ctx, models.PairTransition{
			ActorID:  actorID,
			TargetID: targetID,
			From:     from,
			To:       to,
			Outcome:  outcome,
		})
		if err == nil {
			return from, to, nil
		}
		if !errors.Is(err, models.ErrStateConflict) || attempt >= g.maxAttempts {
			return from, from, err
		}
		g.log.Debug("pair state changed concurrently, retrying",
			"actor_id", actorID, "target_id", targetID, "attempt", attempt)
	}
}

func (g *SocialGraph) activeUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := g.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

// Follow follows target, or files a follow request when target is private.
// Following back a user with a pending request toward the actor accepts it.
func (g *SocialGraph) Follow(ctx context.Context, actorID, targetID uint) (models.RelationStatus, error) {
	if actorID == targetID {
		return models.StatusNone, models.ErrSelfReference
	}
	actor, err := g.activeUser(ctx, actorID)
	if err != nil {
		return models.StatusNone, err
	}
	target, err := g.activeUser(ctx, targetID)
	if err != nil {
		return models.StatusNone, err
	}

	unlock := g.locks.Lock(actorID, targetID)
	defer unlock()

	charged := false
	from, to, err := g.apply(ctx, actorID, targetID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		if from.Blocking || from.BlockedBy {
			return from, "", models.ErrAlreadyBlocked
		}
		if from.Following || from.Requested {
			return from, "", nil
		}

		if !charged {
			if !g.limiter.Allow(actorID) {
				return from, "", models.ErrRateLimited
			}
			charged = true
		}

		to := from
		if from.RequestedBy {
			to.RequestedBy = false
			to.FollowedBy = true
		}
		if target.IsPrivate() {
			to.Requested = true
		} else {
			to.Following = true
		}
		return to, models.FollowRequestAccepted, nil
	})
	if err != nil {
		return from.Status(), err
	}
	if from == to {
		return to.Status(), nil
	}

	if to.Following && !from.Following && target.NotifyOnFollow {
		g.notify(models.NotificationJob{
			RecipientID:  targetID,
			ActorID:      actorID,
			Type:         models.NotificationFollow,
			Message:      fmt.Sprintf("%s started following you", actor.Handle()),
			RelatedID:    strconv.FormatUint(uint64(actorID), 10),
			RelatedModel: "User",
		})
	}
	if to.Requested && !from.Requested {
		g.notify(g.requestJob(ctx, actor, targetID))
	}
	if to.FollowedBy && !from.FollowedBy {
		g.notify(models.NotificationJob{
			RecipientID:  targetID,
			ActorID:      actorID,
			Type:         models.NotificationFollowAccepted,
			Message:      fmt.Sprintf("%s accepted your follow request", actor.Handle()),
			RelatedID:    strconv.FormatUint(uint64(actorID), 10),
			RelatedModel: "User",
		})
	}

	g.record(ctx, actorID, "follow", targetID, from.Status(), to.Status())
	return to.Status(), nil
}

func (g *SocialGraph) requestJob(ctx context.Context, actor *models.User, targetID uint) models.NotificationJob {
	job := models.NotificationJob{
		RecipientID:  targetID,
		ActorID:      actor.ID,
		Type:         models.NotificationFollowRequest,
		Message:      fmt.Sprintf("%s requested to follow you", actor.Handle()),
		RelatedID:    strconv.FormatUint(uint64(actor.ID), 10),
		RelatedModel: "User",
	}
	if req, err := g.relationships.GetPendingRequest(ctx, actor.ID, targetID); err == nil {
		job.RelatedID = strconv.FormatUint(uint64(req.ID), 10)
		job.RelatedModel = "FollowRequest"
	}
	return job
}

// Unfollow removes the actor -> target edge. Missing edges are not an error.
func (g *SocialGraph) Unfollow(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.ErrSelfReference
	}

	unlock := g.locks.Lock(actorID, targetID)
	defer unlock()

	from, to, err := g.apply(ctx, actorID, targetID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		to := from
		to.Following = false
		return to, "", nil
	})
	if err != nil || from == to {
		return err
	}
	g.record(ctx, actorID, "unfollow", targetID, from.Status(), to.Status())
	return nil
}

// CancelFollowRequest withdraws the actor's pending request to target.
func (g *SocialGraph) CancelFollowRequest(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.ErrSelfReference
	}

	unlock := g.locks.Lock(actorID, targetID)
	defer unlock()

	from, to, err := g.apply(ctx, actorID, targetID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		if !from.Requested {
			return from, "", models.ErrNoPendingRequest
		}
		to := from
		to.Requested = false
		return to, models.FollowRequestCancelled, nil
	})
	if err != nil {
		return err
	}
	g.record(ctx, actorID, "cancel_follow_request", targetID, from.Status(), to.Status())
	return nil
}

// RejectFollowRequest declines requester's pending request to the actor.
func (g *SocialGraph) RejectFollowRequest(ctx context.Context, actorID, requesterID uint) error {
	if actorID == requesterID {
		return models.ErrSelfReference
	}

	unlock := g.locks.Lock(actorID, requesterID)
	defer unlock()

	from, to, err := g.apply(ctx, actorID, requesterID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		if !from.RequestedBy {
			return from, "", models.ErrNoPendingRequest
		}
		to := from
		to.RequestedBy = false
		return to, models.FollowRequestRejected, nil
	})
	if err != nil {
		return err
	}
	g.record(ctx, actorID, "reject_follow_request", requesterID, from.Reverse().Status(), to.Reverse().Status())
	return nil
}

// AcceptFollowRequest turns requester's pending request into a follow edge.
func (g *SocialGraph) AcceptFollowRequest(ctx context.Context, actorID, requesterID uint) error {
	if actorID == requesterID {
		return models.ErrSelfReference
	}
	actor, err := g.activeUser(ctx, actorID)
	if err != nil {
		return err
	}

	unlock := g.locks.Lock(actorID, requesterID)
	defer unlock()

	from, to, err := g.apply(ctx, actorID, requesterID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		if !from.RequestedBy {
			return from, "", models.ErrNoPendingRequest
		}
		to := from
		to.RequestedBy = false
		to.FollowedBy = true
		return to, models.FollowRequestAccepted, nil
	})
	if err != nil {
		return err
	}

	g.notify(models.NotificationJob{
		RecipientID:  requesterID,
		ActorID:      actorID,
		Type:         models.NotificationFollowAccepted,
		Message:      fmt.Sprintf("%s accepted your follow request", actor.Handle()),
		RelatedID:    strconv.FormatUint(uint64(actorID), 10),
		RelatedModel: "User",
	})
	g.record(ctx, actorID, "accept_follow_request", requesterID, from.Reverse().Status(), to.Reverse().Status())
	return nil
}

// Block severs both follow edges, cancels pending requests both ways and
// blocks target. Blocking twice is a no-op.
func (g *SocialGraph) Block(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.ErrSelfReference
	}
	if _, err := g.activeUser(ctx, targetID); err != nil {
		return err
	}

	unlock := g.locks.Lock(actorID, targetID)
	defer unlock()

	from, to, err := g.apply(ctx, actorID, targetID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		if from.Blocking {
			return from, "", nil
		}
		return models.PairState{Blocking: true, BlockedBy: from.BlockedBy}, models.FollowRequestCancelled, nil
	})
	if err != nil || from == to {
		return err
	}
	g.record(ctx, actorID, "block", targetID, from.Status(), to.Status())
	return nil
}

// Unblock lifts the actor's block. Follow edges are not restored.
func (g *SocialGraph) Unblock(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return models.ErrSelfReference
	}

	unlock := g.locks.Lock(actorID, targetID)
	defer unlock()

	from, to, err := g.apply(ctx, actorID, targetID, func(from models.PairState) (models.PairState, models.FollowRequestStatus, error) {
		to := from
		to.Blocking = false
		return to, "", nil
	})
	if err != nil || from == to {
		return err
	}
	g.record(ctx, actorID, "unblock", targetID, from.Status(), to.Status())
	return nil
}

// Status reports the actor -> target state.
func (g *SocialGraph) Status(ctx context.Context, actorID, targetID uint) (models.RelationStatus, error) {
	if actorID == targetID {
		return models.StatusNone, models.ErrSelfReference
	}
	state, err := g.relationships.GetPairState(ctx, actorID, targetID)
	if err != nil {
		return models.StatusNone, err
	}
	return state.Status(), nil
}

func (g *SocialGraph) notify(job models.NotificationJob) {
	if g.queue == nil {
		return
	}
	g.queue.Enqueue(job)
}

// record appends an audit entry. Failures are logged and swallowed.
func (g *SocialGraph) record(ctx context.Context, actorID uint, action string, targetID uint, from, to models.RelationStatus) {
	if g.history == nil {
		return
	}
	info := ClientInfoFrom(ctx)
	entry := &models.UserHistory{
		UserID:    actorID,
		Field:     fmt.Sprintf("%s:%d", action, targetID),
		OldValue:  string(from),
		NewValue:  string(to),
		IPAddress: info.IP,
		Device:    info.UserAgent,
	}
	if err := g.history.Append(ctx, entry); err != nil {
		g.log.Warn("failed to record user history", "user_id", actorID, "action", action, "error", err)
	}
}
