package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/focusloop/backend/internal/cache"
	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/repositories"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests. All graph mutations
// go through the engine's transaction; this layer only translates errors,
// mirrors the optimistic cache and emits the best-effort notification.
type FollowHandler struct {
	engine                 *socialgraph.Engine
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	mirror                 *cache.Mirror
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(engine *socialgraph.Engine, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, mirror *cache.Mirror) *FollowHandler {
	return &FollowHandler{
		engine:                 engine,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		mirror:                 mirror,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	if err := h.applyChange(c, currentUserID, targetID, socialgraph.ActionFollow); err != nil {
		return err
	}

	// Notification is fire-and-forget, outside the transaction: a lost
	// notification never rolls back the graph mutation, and the mutation's
	// retries never duplicate it.
	if h.notificationRepository != nil {
		actor, err := h.userRepository.GetUserByID(c.Request().Context(), currentUserID)
		if err == nil {
			notif := &models.Notification{
				Type:        "follow",
				ActorID:     currentUserID,
				RecipientID: targetID,
				Message:     actor.DisplayName + " started following you",
			}
			if err := h.notificationRepository.CreateNotification(c.Request().Context(), notif); err != nil {
				log.Printf("follow notification for %s failed: %v", targetID, err)
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user. No notification is emitted on unfollow.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID := c.Param("id")

	if err := h.applyChange(c, currentUserID, targetID, socialgraph.ActionUnfollow); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

func (h *FollowHandler) applyChange(c echo.Context, actorID, targetID string, action socialgraph.Action) error {
	err := h.mirror.ApplyFollowChange(c.Request().Context(), actorID, targetID, action, func(ctx context.Context) error {
		return h.engine.ApplyFollowChange(ctx, actorID, targetID, action)
	})
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, socialgraph.ErrSelfFollow):
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	case socialgraph.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	default:
		log.Printf("follow change %s %s->%s failed: %v", action, actorID, targetID, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update relationship")
	}
}

// GetFollowers lists the users following :id
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.listEdgeUsers(c, h.engine.Followers)
}

// GetFollowing lists the users :id follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.listEdgeUsers(c, h.engine.Following)
}

func (h *FollowHandler) listEdgeUsers(c echo.Context, list func(ctx context.Context, id string) ([]string, error)) error {
	userID := c.Param("id")
	ids, err := list(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	users, err := h.userRepository.GetUsersByIDs(c.Request().Context(), ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compact := make([]models.UserCompact, 0, len(ids))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			compact = append(compact, u.ToCompact())
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": compact}})
}
