package handlers

import (
	"github.com/focusloop/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user ID from the JWT
// claims stored by the auth middleware. Returns "" when unauthenticated.
func getUserIDFromContext(c echo.Context) string {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.UserID
}
