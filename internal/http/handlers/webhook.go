package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	log            *logger.Logger
	webhookService services.WebhookService
	production     bool
}

// NewWebhookHandler builds the Clerk receiver. In production the unsigned
// simulator answers 403.
func NewWebhookHandler(log *logger.Logger, webhookService services.WebhookService, production bool) *WebhookHandler {
	return &WebhookHandler{
		log:            log.With("handler", "WebhookHandler"),
		webhookService: webhookService,
		production:     production,
	}
}

// POST /api/webhook/clerk (alias /api/webhooks/clerk)
func (h *WebhookHandler) ClerkWebhook(c *gin.Context) {
	headers := clerk.WebhookHeaders{
		ID:        c.GetHeader(clerk.HeaderSvixID),
		Timestamp: c.GetHeader(clerk.HeaderSvixTimestamp),
		Signature: c.GetHeader(clerk.HeaderSvixSignature),
	}
	if !headers.Complete() {
		response.RespondError(c, http.StatusBadRequest, "missing_svix_headers", errors.New("Error occurred -- no svix headers"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}

	eventType, err := h.webhookService.HandleClerkEvent(c.Request.Context(), headers, body)
	if err != nil {
		h.log.Warn("Webhook not processed", "type", eventType, "error", err)
		response.RespondServiceError(c, err, "webhook_failed")
		return
	}
	response.RespondOK(c, gin.H{"message": "Webhook processed successfully"})
}

type simulatedEvent struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// POST /api/dev-webhook/clerk
func (h *WebhookHandler) DevClerkWebhook(c *gin.Context) {
	if h.production {
		response.RespondError(c, http.StatusForbidden, "dev_only", errors.New("This endpoint is only for development"))
		return
	}
	var req simulatedEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	action, err := h.webhookService.SimulateEvent(c.Request.Context(), req.EventType, req.Data)
	if errors.Is(err, services.ErrUnsupportedSimulation) {
		response.RespondOK(c, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		response.RespondServiceError(c, err, "dev_webhook_failed")
		return
	}
	response.RespondOK(c, gin.H{"success": true, "action": action})
}
