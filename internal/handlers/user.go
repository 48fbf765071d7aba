package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// HistoryLister reads the caller's audit trail.
type HistoryLister interface {
	ListByUser(ctx context.Context, userID uint, limit int64) ([]models.UserHistory, error)
}

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	profiles *services.Profiles
	graph    *services.SocialGraph
	history  HistoryLister
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(profiles *services.Profiles, graph *services.SocialGraph, history HistoryLister) *UserHandler {
	return &UserHandler{profiles: profiles, graph: graph, history: history}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.PUT("/profile/privacy", h.UpdatePrivacy)
	g.GET("/profile/history", h.GetHistory)
	g.DELETE("/profile", h.DeleteUser)
	g.GET("/users/:id", h.GetUser)
}

// UserProfile is another user's profile as seen by the caller.
type UserProfile struct {
	models.UserCompact
	Bio          string                `json:"bio"`
	Interests    []string              `json:"interests"`
	Email        string                `json:"email,omitempty"`
	City         string                `json:"city,omitempty"`
	Country      string                `json:"country,omitempty"`
	IsPrivate    bool                  `json:"is_private"`
	Relationship models.RelationStatus `json:"relationship"`
}

// GetUser returns another user's profile. Blocked pairs see 404.
func (h *UserHandler) GetUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id", "user")
	if err != nil {
		return err
	}
	if id == currentUserID {
		return h.GetProfile(c)
	}

	ctx := c.Request().Context()
	user, err := h.profiles.Get(ctx, id)
	if err != nil {
		return mapError(err)
	}
	status, err := h.graph.Status(ctx, currentUserID, id)
	if err != nil {
		return mapError(err)
	}
	if status == models.StatusBlocked {
		return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
	}

	profile := UserProfile{
		UserCompact:  user.ToCompact(),
		IsPrivate:    user.IsPrivate(),
		Relationship: status,
	}
	// private accounts show details to followers only
	if !user.IsPrivate() || status == models.StatusFollowing {
		profile.Bio = user.Bio
		profile.Interests = user.Interests
		if user.ShowLocation {
			profile.City = user.City
			profile.Country = user.Country
		}
		if user.ShowEmail {
			profile.Email = user.Email
		}
	}
	return success(c, profile)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	user, err := h.profiles.Get(c.Request().Context(), currentUserID)
	if err != nil {
		return mapError(err)
	}
	return success(c, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.profiles.Update(c.Request().Context(), currentUserID, req)
	if err != nil {
		return mapError(err)
	}
	return success(c, user)
}

// UpdatePrivacy changes visibility, field exposure and follow notification settings
func (h *UserHandler) UpdatePrivacy(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.UpdatePrivacyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.profiles.UpdatePrivacy(c.Request().Context(), currentUserID, req)
	if err != nil {
		return mapError(err)
	}
	return success(c, echo.Map{
		"profile_visibility": user.ProfileVisibility,
		"notify_on_follow":   user.NotifyOnFollow,
		"show_location":      user.ShowLocation,
		"show_email":         user.ShowEmail,
	})
}

// GetHistory lists the caller's most recent account changes (?limit, max 100)
func (h *UserHandler) GetHistory(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}

	entries, err := h.history.ListByUser(c.Request().Context(), currentUserID, int64(limit))
	if err != nil {
		return mapError(err)
	}
	return success(c, echo.Map{"history": entries})
}

// DeleteUser soft-deletes the authenticated user's account
func (h *UserHandler) DeleteUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.profiles.Delete(c.Request().Context(), currentUserID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
