package app

import (
	"gorm.io/gorm"

	httpH "github.com/komodohub/komodo-hub-backend/internal/http/handlers"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Webhook  *httpH.WebhookHandler
	Course   *httpH.CourseHandler
	Progress *httpH.ProgressHandler
	Post     *httpH.PostHandler
	Message  *httpH.MessageHandler
	User     *httpH.UserHandler
	Profile  *httpH.ProfileHandler
	Upload   *httpH.UploadHandler
	Realtime *httpH.RealtimeHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Webhook:  httpH.NewWebhookHandler(log, services.Webhook, cfg.Production()),
		Course:   httpH.NewCourseHandler(log, services.Course),
		Progress: httpH.NewProgressHandler(log, services.Progress),
		Post:     httpH.NewPostHandler(log, services.Post),
		Message:  httpH.NewMessageHandler(log, services.Message),
		User:     httpH.NewUserHandler(log, services.User),
		Profile:  httpH.NewProfileHandler(log, services.Profile),
		Upload:   httpH.NewUploadHandler(log, services.Media),
		Realtime: httpH.NewRealtimeHandler(log, sseHub),
	}
}
