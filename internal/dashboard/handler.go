package dashboard

import (
	"net/http"

	"tutorhub/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// StudentStats godoc
// @Summary      Student dashboard stats
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  StudentStats
// @Failure      401  {object}  gin.H
// @Router       /api/student/dashboard/stats [get]
func (h *Handler) StudentStats(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	stats, err := h.repo.GetStudentStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// TeacherStats godoc
// @Summary      Teacher dashboard stats
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  TeacherStats
// @Failure      401  {object}  gin.H
// @Router       /api/teacher/dashboard/stats [get]
func (h *Handler) TeacherStats(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	stats, err := h.repo.GetTeacherStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dashboard stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
