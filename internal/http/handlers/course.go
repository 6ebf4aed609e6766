package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courseService.List(c.Request.Context())
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondServiceError(c, err, "courses_fetch_failed")
		return
	}
	response.RespondOK(c, courses)
}

// GET /api/courses/:courseId
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.Get(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.RespondServiceError(c, err, "course_fetch_failed")
		return
	}
	response.RespondOK(c, course)
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var in services.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, err, "course_create_failed")
		return
	}
	response.RespondCreated(c, course)
}

// PUT /api/courses/:courseId
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var in services.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courseService.Update(c.Request.Context(), c.Param("courseId"), in)
	if err != nil {
		response.RespondServiceError(c, err, "course_update_failed")
		return
	}
	response.RespondOK(c, course)
}

// DELETE /api/courses/:courseId
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	course, err := h.courseService.Delete(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.RespondServiceError(c, err, "course_delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Course deleted successfully", "course": course})
}
