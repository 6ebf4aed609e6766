package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type Services struct {
	Avatar   services.AvatarService
	Identity services.IdentityService
	Webhook  services.WebhookService
	Course   services.CourseService
	Progress services.ProgressService
	Post     services.PostService
	Message  services.MessageService
	User     services.UserService
	Profile  services.ProfileService
	Media    services.MediaService
}

// wireServices takes store as nil when object storage is disabled.
func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	repos Repos,
	profiles clerk.Client,
	store services.MediaStore,
	emitter realtime.Emitter,
) (Services, error) {
	log.Info("Wiring services...")

	avatarService, err := services.NewAvatarService(log, store, cfg.AvatarFont, cfg.AvatarColors)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	identityService := services.NewIdentityService(log, repos.User, profiles, avatarService)

	return Services{
		Avatar:   avatarService,
		Identity: identityService,
		Webhook: services.NewWebhookService(
			db, log, cfg.ClerkWebhookSecret,
			repos.User, repos.Post, repos.Message, repos.Progress,
		),
		Course:   services.NewCourseService(db, log, repos.Course, repos.Progress),
		Progress: services.NewProgressService(db, log, repos.Course, repos.Progress),
		Post:     services.NewPostService(log, repos.Post),
		Message:  services.NewMessageService(log, repos.User, repos.Message, emitter),
		User:     services.NewUserService(log, repos.User),
		Profile: services.NewProfileService(
			db, log, identityService, avatarService,
			repos.User, repos.Post, repos.Message, repos.Progress,
		),
		Media: services.NewMediaService(log, store),
	}, nil
}
