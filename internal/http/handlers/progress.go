package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type ProgressHandler struct {
	log             *logger.Logger
	progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		log:             log.With("handler", "ProgressHandler"),
		progressService: progressService,
	}
}

// GET /api/user-progress?courseId=<id|all>
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	courseID := strings.TrimSpace(c.Query("courseId"))
	if courseID == services.AllCourses {
		summary, err := h.progressService.GetSummary(c.Request.Context(), u.ID)
		if err != nil {
			h.log.Error("GetSummary failed", "error", err, "user_id", u.ID)
			response.RespondServiceError(c, err, "progress_fetch_failed")
			return
		}
		response.RespondOK(c, summary)
		return
	}
	view, err := h.progressService.GetForCourse(c.Request.Context(), u.ID, courseID)
	if err != nil {
		response.RespondServiceError(c, err, "progress_fetch_failed")
		return
	}
	response.RespondOK(c, view)
}

type completeModuleRequest struct {
	CourseID string `json:"courseId"`
	ModuleID string `json:"moduleId"`
}

// POST /api/user-progress
func (h *ProgressHandler) CompleteModule(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	var req completeModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.progressService.CompleteModule(c.Request.Context(), u.ID, req.CourseID, req.ModuleID)
	if err != nil {
		response.RespondServiceError(c, err, "progress_update_failed")
		return
	}
	response.RespondOK(c, view)
}

// POST /api/user-progress/reset
func (h *ProgressHandler) ResetProgress(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	var req struct {
		CourseID string `json:"courseId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, found, err := h.progressService.Reset(c.Request.Context(), u.ID, req.CourseID)
	if err != nil {
		response.RespondServiceError(c, err, "progress_reset_failed")
		return
	}
	if !found {
		response.RespondOK(c, gin.H{"message": "No progress to reset", "success": true})
		return
	}
	response.RespondOK(c, gin.H{"message": "Progress reset successfully", "success": true, "progress": view})
}
