package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/repositories"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feedRepository repositories.FeedRepository
	userRepository repositories.UserRepository
	engine         *socialgraph.Engine
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedRepo repositories.FeedRepository, userRepo repositories.UserRepository, engine *socialgraph.Engine) *FeedHandler {
	return &FeedHandler{
		feedRepository: feedRepo,
		userRepository: userRepo,
		engine:         engine,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedEntry is a feed entry with author info attached
type EnrichedEntry struct {
	models.FeedEntry
	Author models.UserCompact `json:"author"`
}

// GetFeed returns the viewer's activity feed: their own entries plus entries
// from everyone they follow, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	following, err := h.engine.Following(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authors := append(following, currentUserID)

	skip := int64((page - 1) * limit)
	entries, err := h.feedRepository.GetForAuthors(c.Request().Context(), authors, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalItems, err := h.feedRepository.CountForAuthors(c.Request().Context(), authors)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Collect unique author IDs from the page and resolve them once
	authorIDs := make(map[string]bool)
	for _, e := range entries {
		authorIDs[e.AuthorID] = true
	}
	ids := make([]string, 0, len(authorIDs))
	for id := range authorIDs {
		ids = append(ids, id)
	}
	userMap, err := h.userRepository.GetUsersByIDs(c.Request().Context(), ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched := make([]EnrichedEntry, len(entries))
	for i, e := range entries {
		enriched[i] = EnrichedEntry{FeedEntry: e}
		if u, ok := userMap[e.AuthorID]; ok {
			enriched[i].Author = u.ToCompact()
		}
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"entries": enriched,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      totalItems,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}
