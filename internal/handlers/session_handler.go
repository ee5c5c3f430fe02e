package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/focusloop/backend/internal/models"
	"github.com/focusloop/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// SessionHandler handles productivity session HTTP requests
type SessionHandler struct {
	sessionRepository repositories.SessionRepository
	feedRepository    repositories.FeedRepository
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionRepo repositories.SessionRepository, feedRepo repositories.FeedRepository) *SessionHandler {
	return &SessionHandler{sessionRepository: sessionRepo, feedRepository: feedRepo}
}

// RegisterSessionRoutes registers session-related routes
func (h *SessionHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions", h.GetSessions)
	g.DELETE("/sessions/:id", h.DeleteSession)
}

// CreateSession records a completed productivity session
func (h *SessionHandler) CreateSession(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !req.EndedAt.After(req.StartedAt) {
		return echo.NewHTTPError(http.StatusBadRequest, "Session must end after it starts")
	}

	session := &models.Session{
		UserID:          currentUserID,
		Title:           req.Title,
		Tag:             req.Tag,
		StartedAt:       req.StartedAt,
		EndedAt:         req.EndedAt,
		DurationMinutes: req.DurationMinutes,
	}

	if err := h.sessionRepository.CreateSession(session); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Mirror the session into the activity feed, best-effort
	if h.feedRepository != nil {
		entry := &models.FeedEntry{
			AuthorID:        currentUserID,
			Type:            "session",
			Title:           session.Title,
			Tag:             session.Tag,
			DurationMinutes: session.DurationMinutes,
		}
		if err := h.feedRepository.CreateEntry(c.Request().Context(), entry); err != nil {
			log.Printf("feed entry for session %d failed: %v", session.ID, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": session})
}

// GetSessions lists the authenticated user's sessions with pagination
func (h *SessionHandler) GetSessions(c echo.Context) error {
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

	sessions, total, err := h.sessionRepository.GetSessionsByUser(currentUserID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalMinutes, err := h.sessionRepository.GetTotalMinutes(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"sessions":      sessions,
			"total_minutes": totalMinutes,
		},
		"meta": echo.Map{
			"currentPage":  page,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// DeleteSession deletes one of the authenticated user's sessions
func (h *SessionHandler) DeleteSession(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid session ID")
	}

	if err := h.sessionRepository.DeleteSession(uint(id), currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}

	return c.NoContent(http.StatusNoContent)
}
