package app

import (
	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/http"
	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        observability.Current(),
		TracingEnabled: cfg.TracingEnabled,
		ServiceName:    "komodo-hub",
		CORSOrigins:    cfg.CORSOrigins,

		AuthMiddleware: middleware.Auth,
		WebhookLimiter: middleware.WebhookLimiter,
		UploadLimiter:  middleware.UploadLimiter,

		HealthHandler:   handlers.Health,
		WebhookHandler:  handlers.Webhook,
		CourseHandler:   handlers.Course,
		ProgressHandler: handlers.Progress,
		PostHandler:     handlers.Post,
		MessageHandler:  handlers.Message,
		UserHandler:     handlers.User,
		ProfileHandler:  handlers.Profile,
		UploadHandler:   handlers.Upload,
		RealtimeHandler: handlers.Realtime,
	})
}
