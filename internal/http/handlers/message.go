package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type MessageHandler struct {
	log            *logger.Logger
	messageService services.MessageService
}

func NewMessageHandler(log *logger.Logger, messageService services.MessageService) *MessageHandler {
	return &MessageHandler{
		log:            log.With("handler", "MessageHandler"),
		messageService: messageService,
	}
}

// GET /api/messages?userId=<clerkId>
func (h *MessageHandler) ListConversation(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	msgs, err := h.messageService.Conversation(c.Request.Context(), u, c.Query("userId"))
	if err != nil {
		response.RespondServiceError(c, err, "messages_fetch_failed")
		return
	}
	response.RespondOK(c, msgs)
}

type sendMessageRequest struct {
	Content    string `json:"content"`
	ReceiverID string `json:"receiverId"`
}

// POST /api/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	msg, err := h.messageService.Send(c.Request.Context(), u, req.ReceiverID, req.Content)
	if err != nil {
		response.RespondServiceError(c, err, "message_create_failed")
		return
	}
	response.RespondCreated(c, msg)
}

// DELETE /api/messages/:messageId
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
		return
	}
	if err := h.messageService.Delete(c.Request.Context(), u, c.Param("messageId")); err != nil {
		response.RespondServiceError(c, err, "message_delete_failed")
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Message deleted successfully"})
}
