package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/focusloop/backend/internal/cache"
	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/repositories"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userRepository repositories.UserRepository
	engine         *socialgraph.Engine
	counterCache   cache.CounterCache
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, engine *socialgraph.Engine, counterCache cache.CounterCache) *UserHandler {
	return &UserHandler{userRepository: userRepo, engine: engine, counterCache: counterCache}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.GET("/users/:id", h.GetUser)     // Get other user's profile by ID
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.loadUser(c.Request().Context(), currentUserID)
	if err != nil {
		if socialgraph.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), currentUserID)
	if err != nil {
		if socialgraph.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	displayName := user.DisplayName
	if req.DisplayName != "" {
		displayName = req.DisplayName
	}
	bio := user.Bio
	if req.Bio != "" {
		bio = req.Bio
	}

	if err := h.userRepository.UpdateProfile(c.Request().Context(), currentUserID, displayName, bio); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user.DisplayName = displayName
	user.Bio = bio
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": user})
}

// ProfileResponse is another user's profile with relationship flags
type ProfileResponse struct {
	models.User
	IsFollowing  bool `json:"is_following"`
	IsFollowedBy bool `json:"is_followed_by"`
}

// GetUser retrieves another user's profile, enriched with the viewer's
// relationship to them
func (h *UserHandler) GetUser(c echo.Context) error {
	id := c.Param("id")

	user, err := h.loadUser(c.Request().Context(), id)
	if err != nil {
		if socialgraph.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := ProfileResponse{User: *user}
	if viewerID := getUserIDFromContext(c); viewerID != "" && viewerID != id {
		if following, err := h.engine.IsFollowing(c.Request().Context(), viewerID, id); err == nil {
			resp.IsFollowing = following
		}
		if followedBy, err := h.engine.IsFollowing(c.Request().Context(), id, viewerID); err == nil {
			resp.IsFollowedBy = followedBy
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": resp})
}

// loadUser reads a profile, serving counters from the cache when warm and
// re-warming it on a miss. The cache is advisory; failures fall through to
// the store.
func (h *UserHandler) loadUser(ctx context.Context, id string) (*models.User, error) {
	user, err := h.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.counterCache == nil {
		return user, nil
	}

	snap, ok, cacheErr := h.counterCache.Get(ctx, id)
	switch {
	case cacheErr != nil:
		log.Printf("counter cache read for %s failed: %v", id, cacheErr)
	case ok:
		user.FollowerCount = snap.FollowerCount
		user.FollowingCount = snap.FollowingCount
		user.MutualFriendshipCount = snap.MutualFriendshipCount
	default:
		warm := cache.CounterSnapshot{
			FollowerCount:         user.FollowerCount,
			FollowingCount:        user.FollowingCount,
			MutualFriendshipCount: user.MutualFriendshipCount,
		}
		if err := h.counterCache.Set(ctx, id, warm); err != nil {
			log.Printf("counter cache warm for %s failed: %v", id, err)
		}
	}
	return user, nil
}
