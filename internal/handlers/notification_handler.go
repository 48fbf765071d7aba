package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor *models.UserCompact `json:"actor,omitempty"`
}

// enrichNotifications attaches actor cards; actors that no longer resolve are left out.
func (h *NotificationHandler) enrichNotifications(ctx context.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	userCache := make(map[uint]*models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if n.ActorID == 0 {
			continue
		}
		actor, ok := userCache[n.ActorID]
		if !ok {
			if user, err := h.userRepository.GetUserByID(ctx, n.ActorID); err == nil && !user.IsDeleted {
				compact := user.ToCompact()
				actor = &compact
			}
			userCache[n.ActorID] = actor
		}
		enriched[i].Actor = actor
	}
	return enriched
}

// GetNotifications returns paginated notifications, optionally filtered by ?read=true|false
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	var read *bool
	if raw := c.QueryParam("read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid read filter")
		}
		read = &v
	}

	ctx := c.Request().Context()
	notifications, total, err := h.notificationRepository.GetByRecipientID(ctx, currentUserID, read, page, limit)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.enrichNotifications(ctx, notifications),
		},
		"meta": pageMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	groups, err := h.notificationRepository.GetGrouped(ctx, currentUserID)
	if err != nil {
		return mapError(err)
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, currentUserID)
	if err != nil {
		return mapError(err)
	}

	grouped := echo.Map{}
	for _, g := range groups {
		grouped[g.Period] = h.enrichNotifications(ctx, g.Notifications)
	}

	return success(c, echo.Map{
		"notifications": grouped,
		"unreadCount":   unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return mapError(err)
	}

	return success(c, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	notifID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), currentUserID, notifID); err != nil {
		return mapError(err)
	}

	return success(c, echo.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	updated, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID)
	if err != nil {
		return mapError(err)
	}

	return success(c, echo.Map{"success": true, "updated": updated})
}

// DeleteNotification removes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	notifID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.Delete(c.Request().Context(), currentUserID, notifID); err != nil {
		return mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
