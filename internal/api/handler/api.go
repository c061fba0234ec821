package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/khaki/internal/engine"
)

// SaveRequest is the body of a JSON save.
type SaveRequest struct {
	Hours map[string]string `json:"hours" binding:"required"`
}

// Me returns the current user.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// GetCalendar returns the calendar of a user as JSON.
func (h *Handler) GetCalendar(c *gin.Context) {
	user := currentUser(c)
	targetID, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.jsonError(c, fmt.Errorf("%w: invalid user id", engine.ErrUserNotFound))
		return
	}

	view, err := h.engine.CalendarView(c.Request.Context(), user.Actor(), targetID)
	if err != nil {
		h.jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// PostCalendar saves hours of a user from a JSON body.
func (h *Handler) PostCalendar(c *gin.Context) {
	user := currentUser(c)
	targetID, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.jsonError(c, fmt.Errorf("%w: invalid user id", engine.ErrUserNotFound))
		return
	}

	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if err := h.engine.Save(c.Request.Context(), user.Actor(), targetID, req.Hours); err != nil {
		h.jsonError(c, err)
		return
	}

	total, err := h.engine.TotalHours(c.Request.Context(), targetID, h.engine.Period().Dates())
	if err != nil {
		h.jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Hours saved successfully",
		"total":   total,
	})
}

// AdminStats returns the user list statistics and the cache statistics.
func (h *Handler) AdminStats(c *gin.Context) {
	user := currentUser(c)

	rows, err := h.engine.UserOverview(c.Request.Context(), user.Actor())
	if err != nil {
		h.jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": rows,
		"cache": h.engine.CacheStats(),
	})
}

// AdminJobs lists the scheduled background jobs.
func (h *Handler) AdminJobs(c *gin.Context) {
	jobs, err := h.engine.Jobs(currentUser(c).Actor())
	if err != nil {
		h.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// AdminRunJob triggers a background job immediately.
func (h *Handler) AdminRunJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.engine.RunJob(currentUser(c).Actor(), id); err != nil {
		h.jsonError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Job triggered",
		"job":     id,
	})
}
