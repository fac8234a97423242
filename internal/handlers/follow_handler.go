package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/avelith/pixelgram/backend/internal/models"
	"github.com/avelith/pixelgram/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followService *services.FollowService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:username/follow", h.FollowUser)
	g.DELETE("/users/:username/follow", h.UnfollowUser)
	g.GET("/users/:username/follow-status", h.GetFollowStatus)
	g.GET("/users/:username/followers", h.GetFollowers)
	g.GET("/users/:username/following", h.GetFollowing)
	g.POST("/follows/batch-status", h.BatchFollowStatus)
	g.POST("/users/:username/recount", h.RecountUser)
}

// FollowUser follows a user identified by username
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	result, err := h.followService.FollowUser(c.Request().Context(), currentUserID, c.Param("username"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to follow user")
	}
	return c.JSON(result.StatusCode, result)
}

// UnfollowUser unfollows a user identified by username
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	result, err := h.followService.UnfollowUser(c.Request().Context(), currentUserID, c.Param("username"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to unfollow user")
	}
	return c.JSON(result.StatusCode, result)
}

// GetFollowStatus reports the relationship between the caller and the target
// in both directions
func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	status, err := h.followService.CheckFollowStatus(c.Request().Context(), currentUserID, c.Param("username"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check follow status")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": status})
}

// GetFollowers returns one page of the target user's followers
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.followService.ListFollowers(c.Request().Context(), c.Param("username"), getUserIDFromContext(c), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list followers")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// GetFollowing returns one page of the users the target user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.followService.ListFollowing(c.Request().Context(), c.Param("username"), getUserIDFromContext(c), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list following")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// BatchFollowStatus checks whether the caller follows each of up to 100 users
func (h *FollowHandler) BatchFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.BatchStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.followService.BatchCheckFollowStatus(c.Request().Context(), currentUserID, req.Usernames)
	if err != nil {
		if errors.Is(err, services.ErrBatchSize) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check follow status")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": result})
}

// RecountUser recomputes a user's cached follow counters from the edges table
func (h *FollowHandler) RecountUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	followers, following, err := h.followService.RecountUser(c.Request().Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to recount user")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"follower_count":  followers,
			"following_count": following,
		},
	})
}
