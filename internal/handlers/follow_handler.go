package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow, follow request and block HTTP requests
type FollowHandler struct {
	graph                  *services.SocialGraph
	relationshipRepository repositories.RelationshipRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.SocialGraph, relRepo repositories.RelationshipRepository) *FollowHandler {
	return &FollowHandler{
		graph:                  graph,
		relationshipRepository: relRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.DELETE("/users/:id/follow-request", h.CancelFollowRequest)
	g.GET("/users/:id/relationship", h.GetRelationship)
	g.POST("/users/:id/block", h.BlockUser)
	g.DELETE("/users/:id/block", h.UnblockUser)

	g.GET("/follow-requests", h.GetFollowRequests)
	g.POST("/follow-requests/:id/accept", h.AcceptFollowRequest)
	g.POST("/follow-requests/:id/reject", h.RejectFollowRequest)

	g.GET("/users/me/followers", h.GetFollowers)
	g.GET("/users/me/following", h.GetFollowing)
	g.GET("/users/me/blocked", h.GetBlocked)
}

// pairAction runs op for the authenticated user and the :id user.
func (h *FollowHandler) pairAction(c echo.Context, op func(ctx context.Context, actorID, targetID uint) error) (uint, error) {
	currentUserID, err := requireUser(c)
	if err != nil {
		return 0, err
	}
	targetID, err := parseIDParam(c, "id", "user")
	if err != nil {
		return 0, err
	}
	if err := op(c.Request().Context(), currentUserID, targetID); err != nil {
		return 0, mapError(err)
	}
	return targetID, nil
}

// FollowUser follows a user, or sends a follow request to a private account
func (h *FollowHandler) FollowUser(c echo.Context) error {
	var status models.RelationStatus
	targetID, err := h.pairAction(c, func(ctx context.Context, actorID, targetID uint) error {
		var err error
		status, err = h.graph.Follow(ctx, actorID, targetID)
		return err
	})
	if err != nil {
		return err
	}
	return success(c, echo.Map{
		"user_id":   targetID,
		"status":    status,
		"following": status == models.StatusFollowing,
		"requested": status == models.StatusRequested,
	})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	targetID, err := h.pairAction(c, h.graph.Unfollow)
	if err != nil {
		return err
	}
	return success(c, echo.Map{"user_id": targetID, "following": false})
}

// CancelFollowRequest withdraws the caller's pending request to :id
func (h *FollowHandler) CancelFollowRequest(c echo.Context) error {
	targetID, err := h.pairAction(c, h.graph.CancelFollowRequest)
	if err != nil {
		return err
	}
	return success(c, echo.Map{"user_id": targetID, "requested": false})
}

// GetRelationship reports the caller's relationship to :id
func (h *FollowHandler) GetRelationship(c echo.Context) error {
	var status models.RelationStatus
	targetID, err := h.pairAction(c, func(ctx context.Context, actorID, targetID uint) error {
		var err error
		status, err = h.graph.Status(ctx, actorID, targetID)
		return err
	})
	if err != nil {
		return err
	}
	return success(c, echo.Map{"user_id": targetID, "status": status})
}

func (h *FollowHandler) BlockUser(c echo.Context) error {
	targetID, err := h.pairAction(c, h.graph.Block)
	if err != nil {
		return err
	}
	return success(c, echo.Map{"user_id": targetID, "blocked": true})
}

func (h *FollowHandler) UnblockUser(c echo.Context) error {
	targetID, err := h.pairAction(c, h.graph.Unblock)
	if err != nil {
		return err
	}
	return success(c, echo.Map{"user_id": targetID, "blocked": false})
}

// AcceptFollowRequest accepts the pending request from requester :id
func (h *FollowHandler) AcceptFollowRequest(c echo.Context) error {
	requesterID, err := h.pairAction(c, h.graph.AcceptFollowRequest)
	if err != nil {
		return err
	}
	return success(c, echo.Map{"requester_id": requesterID, "accepted": true})
}

// RejectFollowRequest rejects the pending request from requester :id
func (h *FollowHandler) RejectFollowRequest(c echo.Context) error {
	requesterID, err := h.pairAction(c, h.graph.RejectFollowRequest)
	if err != nil {
		return err
	}
	return success(c, echo.Map{"requester_id": requesterID, "rejected": true})
}

// GetFollowRequests lists pending requests addressed to the caller
func (h *FollowHandler) GetFollowRequests(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	requests, total, err := h.relationshipRepository.ListPendingRequests(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"requests": requests},
		"meta":    pageMeta(page, limit, total),
	})
}

type userListFunc func(ctx context.Context, userID uint, page, limit int) ([]models.UserCompact, int64, error)

func (h *FollowHandler) listUsers(c echo.Context, key string, list userListFunc) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	users, total, err := list(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{key: users},
		"meta":    pageMeta(page, limit, total),
	})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listUsers(c, "followers", h.relationshipRepository.ListFollowers)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listUsers(c, "following", h.relationshipRepository.ListFollowing)
}

func (h *FollowHandler) GetBlocked(c echo.Context) error {
	return h.listUsers(c, "blocked", h.relationshipRepository.ListBlocked)
}
