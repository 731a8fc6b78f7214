package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"podly/internal/database"
	"podly/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications returns a user's notification feed, newest first.
// Supports an optional ?limit= query parameter (default 50, max 100).
func GetNotifications(c *gin.Context) {
	username := c.Param("username")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = parsed
	}

	repo := repository.NewNotificationRepository(database.GetDB())
	notifications, err := repo.ListForUser(c.Request.Context(), username, limit)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to load notifications", err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead flags one notification in the user's feed as read.
func MarkNotificationRead(c *gin.Context) {
	username := c.Param("username")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	repo := repository.NewNotificationRepository(database.GetDB())
	if err := repo.MarkRead(c.Request.Context(), username, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to update notification", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
