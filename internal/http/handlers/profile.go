package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type ProfileHandler struct {
	log            *logger.Logger
	profileService services.ProfileService
}

func NewProfileHandler(log *logger.Logger, profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		log:            log.With("handler", "ProfileHandler"),
		profileService: profileService,
	}
}

// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	p, err := h.profileService.Get(c.Request.Context(), middleware.ExternalID(c))
	if err != nil {
		response.RespondServiceError(c, err, "profile_fetch_failed")
		return
	}
	response.RespondOK(c, p)
}

// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var in services.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	p, err := h.profileService.Update(c.Request.Context(), middleware.ExternalID(c), in)
	if err != nil {
		h.log.Error("UpdateProfile failed", "error", err)
		response.RespondServiceError(c, err, "profile_update_failed")
		return
	}
	response.RespondOK(c, p)
}

// DELETE /api/profile
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	if err := h.profileService.Delete(c.Request.Context(), middleware.ExternalID(c)); err != nil {
		response.RespondServiceError(c, err, "profile_delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Profile deleted successfully", "redirectTo": "/"})
}

// POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxCoverBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusBadRequest, "file_too_large", errors.New("Avatar must be less than 10MB"))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("No file uploaded"))
		return
	}
	if fh.Size > services.MaxCoverBytes {
		response.RespondError(c, http.StatusBadRequest, "file_too_large", errors.New("Avatar must be less than 10MB"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}

	p, err := h.profileService.UploadAvatar(c.Request.Context(), middleware.ExternalID(c), raw)
	if err != nil {
		h.log.Warn("UploadAvatar failed", "error", err)
		response.RespondServiceError(c, err, "avatar_upload_failed")
		return
	}
	response.RespondOK(c, p)
}
