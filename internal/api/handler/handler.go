package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/khaki/internal/api/models"
	"github.com/jon4hz/khaki/internal/engine"
)

// Template names.
const (
	CalendarTemplate = "calendar.html"
	UsersTemplate    = "users.html"
	SummaryTemplate  = "summary.html"
	ErrorTemplate    = "error.html"
)

const savedFlash = "saved"

type Handler struct {
	engine *engine.Engine
}

func New(eng *engine.Engine) *Handler {
	return &Handler{
		engine: eng,
	}
}

// CalendarPage is the template data of the calendar page.
type CalendarPage struct {
	Title    string
	User     *models.User
	View     *models.CalendarView
	Saved    bool
	Own      bool
	SavePath string
}

// ErrorPage is the template data of the error page.
type ErrorPage struct {
	Title   string
	User    *models.User
	Status  int
	Message string
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, err
	}
	return safecast.Convert[uint](id)
}

// statusFor maps engine errors to http status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnauthorizedEdit), errors.Is(err, engine.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrOutsideEditWindow), errors.Is(err, engine.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUserNotFound), errors.Is(err, engine.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotMaterialized):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns a user facing message. Storage details are never exposed.
func messageFor(err error) string {
	switch statusFor(err) {
	case http.StatusForbidden:
		return "You are not allowed to access this calendar"
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusConflict:
		return "Reload the calendar before saving"
	case http.StatusNotFound:
		if errors.Is(err, engine.ErrJobNotFound) {
			return "Job not found"
		}
		return "User not found"
	default:
		return "Something went wrong, please try again"
	}
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.HTML(status, ErrorTemplate, ErrorPage{
		Title:   http.StatusText(status),
		User:    currentUser(c),
		Status:  status,
		Message: messageFor(err),
	})
}

func (h *Handler) jsonError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   messageFor(err),
	})
}

// Home shows the calendar of the current user. The administrator lands on the user list.
func (h *Handler) Home(c *gin.Context) {
	user := currentUser(c)
	if user.IsAdmin {
		c.Redirect(http.StatusFound, "/admin/users")
		return
	}
	h.renderCalendar(c, user.ID)
}

// Calendar shows the calendar of the user in the URL.
func (h *Handler) Calendar(c *gin.Context) {
	targetID, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.renderError(c, fmt.Errorf("%w: invalid user id", engine.ErrUserNotFound))
		return
	}
	h.renderCalendar(c, targetID)
}

func (h *Handler) renderCalendar(c *gin.Context, targetID uint) {
	user := currentUser(c)

	view, err := h.engine.CalendarView(c.Request.Context(), user.Actor(), targetID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	title := "My calendar"
	if targetID != user.ID {
		title = "Calendar of " + view.Target.Name
	}

	c.HTML(http.StatusOK, CalendarTemplate, CalendarPage{
		Title:    title,
		User:     user,
		View:     view,
		Saved:    c.Query("msg") == savedFlash,
		Own:      targetID == user.ID,
		SavePath: fmt.Sprintf("/calendar/%d", targetID),
	})
}

// SaveCalendar stores the submitted hours for the user in the URL.
func (h *Handler) SaveCalendar(c *gin.Context) {
	user := currentUser(c)
	targetID, err := parseUintParam(c.Param("id"))
	if err != nil {
		h.renderError(c, fmt.Errorf("%w: invalid user id", engine.ErrUserNotFound))
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		h.renderError(c, fmt.Errorf("%w: invalid form", engine.ErrInvalidDate))
		return
	}

	edits := make(map[string]string)
	for key, values := range c.Request.PostForm {
		if !strings.HasPrefix(key, "hours_") || len(values) == 0 {
			continue
		}
		edits[key] = values[len(values)-1]
	}

	if err := h.engine.Save(c.Request.Context(), user.Actor(), targetID, edits); err != nil {
		h.renderError(c, err)
		return
	}

	target := fmt.Sprintf("/calendar/%d?msg=%s", targetID, savedFlash)
	if targetID == user.ID && !user.IsAdmin {
		target = "/?msg=" + savedFlash
	}
	c.Redirect(http.StatusSeeOther, target)
}
