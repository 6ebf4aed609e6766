package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type PostHandler struct {
	log         *logger.Logger
	postService services.PostService
}

func NewPostHandler(log *logger.Logger, postService services.PostService) *PostHandler {
	return &PostHandler{
		log:         log.With("handler", "PostHandler"),
		postService: postService,
	}
}

// GET /api/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context())
	if err != nil {
		h.log.Error("ListPosts failed", "error", err)
		response.RespondServiceError(c, err, "posts_fetch_failed")
		return
	}
	response.RespondOK(c, posts)
}

// POST /api/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	var in services.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	post, err := h.postService.Create(c.Request.Context(), u, in)
	if err != nil {
		response.RespondServiceError(c, err, "post_create_failed")
		return
	}
	response.RespondCreated(c, post)
}

// DELETE /api/posts?id=<id>
// DELETE /api/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	postID := c.Param("id")
	if postID == "" {
		postID = c.Query("id")
	}
	if err := h.postService.Delete(c.Request.Context(), u.ID, postID); err != nil {
		response.RespondServiceError(c, err, "post_delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Post deleted successfully"})
}
