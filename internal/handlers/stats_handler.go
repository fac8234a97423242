package handlers

import (
	"errors"
	"net/http"

	"github.com/avelith/pixelgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// StatsHandler handles profile stats HTTP requests
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// RegisterStatsRoutes registers stats routes
func (h *StatsHandler) RegisterStatsRoutes(g *echo.Group) {
	g.GET("/users/:username/stats", h.GetUserStats)
}

// GetUserStats returns the headline counters for a profile
func (h *StatsHandler) GetUserStats(c echo.Context) error {
	stats, err := h.statsService.GetUserStats(c.Request().Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get user stats")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stats})
}
