package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/khaki/internal/api/models"
)

// UsersPage is the template data of the admin user list.
type UsersPage struct {
	Title string
	User  *models.User
	Users []models.UserStats
}

// SummaryPage is the template data of the all-users table.
type SummaryPage struct {
	Title string
	User  *models.User
	Pivot *models.Pivot
}

// AdminUsers lists every user with entries and their statistics.
func (h *Handler) AdminUsers(c *gin.Context) {
	user := currentUser(c)

	rows, err := h.engine.UserOverview(c.Request.Context(), user.Actor())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, UsersTemplate, UsersPage{
		Title: "Users",
		User:  user,
		Users: rows,
	})
}

// AdminSummary shows the hours of every user over the full period.
func (h *Handler) AdminSummary(c *gin.Context) {
	user := currentUser(c)

	pivot, err := h.engine.Summary(c.Request.Context(), user.Actor())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, SummaryTemplate, SummaryPage{
		Title: "Summary",
		User:  user,
		Pivot: pivot,
	})
}
