package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

// multipartOverhead covers form boundaries and the other fields.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	log          *logger.Logger
	mediaService services.MediaService
}

func NewUploadHandler(log *logger.Logger, mediaService services.MediaService) *UploadHandler {
	return &UploadHandler{
		log:          log.With("handler", "UploadHandler"),
		mediaService: mediaService,
	}
}

// POST /api/upload
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxVideoBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusBadRequest, "file_too_large", errors.New("File is too large"))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", errors.New("No file provided"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	defer f.Close()

	url, err := h.mediaService.Upload(c.Request.Context(), services.Upload{
		Category:    c.PostForm("type"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.RespondServiceError(c, err, "upload_failed")
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}
