package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: userService,
	}
}

// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.log.Error("ListUsers failed", "error", err)
		response.RespondServiceError(c, err, "users_fetch_failed")
		return
	}
	response.RespondOK(c, users)
}

// GET /api/users/:clerkId
func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.userService.GetByExternalID(c.Request.Context(), c.Param("clerkId"))
	if err != nil {
		response.RespondServiceError(c, err, "user_lookup_failed")
		return
	}
	response.RespondOK(c, u)
}
