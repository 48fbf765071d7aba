package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/dispatcher"
	"github.com/labstack/echo/v4"
)

// DispatcherStats is satisfied by *dispatcher.Dispatcher.
type DispatcherStats interface {
	Stats() dispatcher.Stats
}

type HealthHandler struct {
	dispatcher DispatcherStats
}

func NewHealthHandler(d DispatcherStats) *HealthHandler {
	return &HealthHandler{dispatcher: d}
}

func (h *HealthHandler) HealthCheck(e echo.Context) error {
	body := echo.Map{
		"status":  "healthy",
		"service": "nano-social",
	}
	if h.dispatcher != nil {
		stats := h.dispatcher.Stats()
		body["notifications"] = echo.Map{
			"queued":    stats.Queued,
			"in_flight": stats.InFlight,
		}
	}
	return e.JSON(http.StatusOK, body)
}
