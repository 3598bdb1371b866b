package session

import (
	"errors"
	"net/http"
	"strconv"

	"tutorhub/internal/auth"
	"tutorhub/internal/tracker"
	"tutorhub/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Schedule godoc
// @Summary      Schedule a class session
// @Description  Books a tutoring appointment with a teacher. The session is charged at the flat hourly token rate when it starts.
// @Tags         sessions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ScheduleRequest  true  "Session details"
// @Success      201      {object}  ClassSession
// @Failure      400      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Router       /sessions [post]
func (h *Handler) Schedule(c *gin.Context) {
	studentID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.service.Schedule(c.Request.Context(), studentID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTeacherNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "teacher not found"})
		case errors.Is(err, ErrScheduleInPast), errors.Is(err, ErrBadScheduleWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to schedule session"})
		}
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// Start godoc
// @Summary      Start a session
// @Description  Moves the session to in_progress, starts time tracking and deducts the student's tokens.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  ClassSession
// @Failure      402        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /sessions/{sessionID}/start [post]
func (h *Handler) Start(c *gin.Context) {
	h.lifecycle(c, func(teacherID, sessionID int) (interface{}, error) {
		return h.service.Start(c.Request.Context(), teacherID, sessionID)
	})
}

// Pause godoc
// @Summary      Pause a session
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  ElapsedResponse
// @Failure      403        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /sessions/{sessionID}/pause [post]
func (h *Handler) Pause(c *gin.Context) {
	h.lifecycle(c, func(teacherID, sessionID int) (interface{}, error) {
		return h.service.Pause(c.Request.Context(), teacherID, sessionID)
	})
}

// Resume godoc
// @Summary      Resume a paused session
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  ElapsedResponse
// @Failure      403        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /sessions/{sessionID}/resume [post]
func (h *Handler) Resume(c *gin.Context) {
	h.lifecycle(c, func(teacherID, sessionID int) (interface{}, error) {
		return h.service.Resume(c.Request.Context(), teacherID, sessionID)
	})
}

// Complete godoc
// @Summary      Complete a session
// @Description  Finishes a session that has accumulated at least one hour of active time and credits the teacher.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  ClassSession
// @Failure      403        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      422        {object}  gin.H
// @Router       /sessions/{sessionID}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	h.lifecycle(c, func(teacherID, sessionID int) (interface{}, error) {
		return h.service.Complete(c.Request.Context(), teacherID, sessionID)
	})
}

// Cancel godoc
// @Summary      Cancel a session
// @Description  Cancels a scheduled or in-progress session, refunding the student if tokens were already deducted.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Router       /sessions/{sessionID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), userID, sessionID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "session cancelled"})
}

// Elapsed godoc
// @Summary      Live elapsed time for a session
// @Description  Returns accumulated active and paused seconds, and whether the session can be completed yet.
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      int  true  "Session ID"
// @Success      200        {object}  ElapsedResponse
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Router       /sessions/{sessionID}/elapsed [get]
func (h *Handler) Elapsed(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	resp, err := h.service.Elapsed(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMine godoc
// @Summary      List the caller's sessions
// @Tags         sessions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   SessionWithNames
// @Failure      401  {object}  gin.H
// @Router       /sessions [get]
func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	role, _ := auth.GetUserRole(c)

	var (
		sessions []SessionWithNames
		err      error
	)
	if role == "teacher" {
		sessions, err = h.service.ListForTeacher(c.Request.Context(), userID)
	} else {
		sessions, err = h.service.ListForStudent(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) lifecycle(c *gin.Context, op func(teacherID, sessionID int) (interface{}, error)) {
	teacherID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	result, err := op(teacherID, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, ErrNotSessionTeacher), errors.Is(err, ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSessionTooShort):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, wallet.ErrInsufficientTokens):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient token balance"})
	case errors.Is(err, tracker.ErrNotTracked), errors.Is(err, tracker.ErrNotRunning), errors.Is(err, tracker.ErrNotPaused):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
