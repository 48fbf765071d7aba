package handlers

import (
	"net/http"

	"github.com/anonto42/nano-social/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// SuggestionHandler serves "people you may know"
type SuggestionHandler struct {
	engine *services.SuggestionEngine
}

func NewSuggestionHandler(engine *services.SuggestionEngine) *SuggestionHandler {
	return &SuggestionHandler{engine: engine}
}

func (h *SuggestionHandler) RegisterSuggestionRoutes(g *echo.Group) {
	g.GET("/users/suggestions", h.GetSuggestions)
}

// GetSuggestions returns ranked follow suggestions for the caller
func (h *SuggestionHandler) GetSuggestions(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)

	result, err := h.engine.Suggest(c.Request().Context(), currentUserID, services.SuggestionQuery{
		Page:     page,
		Limit:    limit,
		ClientIP: c.RealIP(),
	})
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"suggestions": result.Items},
		"meta":    pageMeta(result.Page, result.Limit, int64(result.Total)),
	})
}
