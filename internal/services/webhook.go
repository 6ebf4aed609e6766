package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type WebhookService interface {
	// HandleClerkEvent verifies the delivery and applies it to the user directory.
	// Nothing is written unless the signature checks out.
	HandleClerkEvent(ctx context.Context, headers clerk.WebhookHeaders, body []byte) (string, error)
	// SimulateEvent applies an unsigned user event. Only the development route calls it.
	SimulateEvent(ctx context.Context, eventType string, data json.RawMessage) (string, error)
}

type webhookService struct {
	db       *gorm.DB
	log      *logger.Logger
	secret   string
	userRepo repos.UserRepo
	purger   accountPurger
}

func NewWebhookService(
	db *gorm.DB,
	log *logger.Logger,
	secret string,
	userRepo repos.UserRepo,
	postRepo repos.PostRepo,
	messageRepo repos.MessageRepo,
	progressRepo repos.UserProgressRepo,
) WebhookService {
	return &webhookService{
		db:       db,
		log:      log.With("service", "WebhookService"),
		secret:   strings.TrimSpace(secret),
		userRepo: userRepo,
		purger:   accountPurger{users: userRepo, posts: postRepo, messages: messageRepo, progress: progressRepo},
	}
}

func (s *webhookService) HandleClerkEvent(ctx context.Context, headers clerk.WebhookHeaders, body []byte) (string, error) {
	if !headers.Complete() {
		return "", apierr.BadRequest("missing_svix_headers", "Error occurred -- no svix headers")
	}
	if s.secret == "" {
		return "", apierr.Internal("webhook_secret_missing", errors.New("CLERK_WEBHOOK_SECRET is not configured"))
	}
	if err := clerk.VerifyWebhook(s.secret, headers, body); err != nil {
		observability.Current().IncWebhook("unverified", "rejected")
		s.log.Warn("Rejected webhook delivery", "svix_id", headers.ID, "error", err)
		return "", apierr.BadRequest("invalid_signature", "Error verifying webhook")
	}

	var evt clerk.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return "", apierr.BadRequest("invalid_payload", "Malformed webhook payload")
	}

	var err error
	switch evt.Type {
	case EventUserCreated:
		err = s.onUserCreated(ctx, evt.Data)
	case EventUserUpdated:
		err = s.onUserUpdated(ctx, evt.Data)
	case EventUserDeleted:
		err = s.onUserDeleted(ctx, evt.Data)
	default:
		err = apierr.BadRequest("unsupported_event", fmt.Sprintf("Unsupported event type: %s", evt.Type))
	}
	if err != nil {
		observability.Current().IncWebhook(evt.Type, "error")
		return evt.Type, err
	}
	observability.Current().IncWebhook(evt.Type, "ok")
	s.log.Info("Webhook processed", "type", evt.Type, "svix_id", headers.ID)
	return evt.Type, nil
}

func decodeUserData(raw json.RawMessage) (clerk.UserData, error) {
	var data clerk.UserData
	if err := json.Unmarshal(raw, &data); err != nil || strings.TrimSpace(data.ID) == "" {
		return data, apierr.BadRequest("invalid_payload", "Webhook payload is missing the user id")
	}
	return data, nil
}

func (s *webhookService) onUserCreated(ctx context.Context, raw json.RawMessage) error {
	data, err := decodeUserData(raw)
	if err != nil {
		return err
	}
	if data.PrimaryEmail() == "" {
		return apierr.BadRequest("missing_email", "No email address found")
	}
	_, err = s.upsert(ctx, data.Profile())
	return err
}

func (s *webhookService) onUserUpdated(ctx context.Context, raw json.RawMessage) error {
	data, err := decodeUserData(raw)
	if err != nil {
		return err
	}
	_, err = s.upsert(ctx, data.Profile())
	return err
}

// upsert makes redelivery idempotent: an existing row (from a previous delivery
// or lazy provisioning) is refreshed instead of failing on the unique key.
// It reports whether a row was inserted.
func (s *webhookService) upsert(ctx context.Context, profile *clerk.Profile) (bool, error) {
	dbc := withCtx(ctx)

	existing, err := s.userRepo.GetByClerkID(dbc, profile.ExternalID)
	if err != nil {
		return false, apierr.Internal("user_lookup_failed", err)
	}
	if existing == nil {
		u := &types.User{ClerkID: profile.ExternalID}
		applyProfile(u, profile)
		if u.ImageURL == "" {
			u.ImageURL = UIAvatarsURL(u.FirstName, u.LastName)
		}
		if _, err := s.userRepo.Create(dbc, u); err == nil {
			return true, nil
		} else if !IsUniqueViolation(err) {
			return false, apierr.Internal("user_create_failed", err)
		}
		if existing, err = s.userRepo.GetByClerkID(dbc, profile.ExternalID); err != nil || existing == nil {
			return false, apierr.Internal("user_create_failed", fmt.Errorf("re-read after duplicate insert: %v", err))
		}
	}

	applyProfile(existing, profile)
	if err := s.userRepo.Save(dbc, existing); err != nil {
		return false, apierr.Internal("user_update_failed", err)
	}
	return false, nil
}

// applyProfile overwrites the mutable fields with the event payload. Only the
// email falls back, since the column is required.
func applyProfile(u *types.User, p *clerk.Profile) {
	u.Email = p.Email
	if u.Email == "" {
		u.Email = types.PendingEmail
	}
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.ImageURL = p.ImageURL
}

func (s *webhookService) onUserDeleted(ctx context.Context, raw json.RawMessage) error {
	var obj clerk.DeletedObject
	if err := json.Unmarshal(raw, &obj); err != nil || strings.TrimSpace(obj.ID) == "" {
		return apierr.BadRequest("invalid_payload", "Webhook payload is missing the user id")
	}
	return s.purge(ctx, obj.ID)
}

func (s *webhookService) purge(ctx context.Context, externalID string) error {
	dbc := withCtx(ctx)
	u, err := s.userRepo.GetByClerkID(dbc, externalID)
	if err != nil {
		return apierr.Internal("user_lookup_failed", err)
	}
	if u == nil {
		s.log.Debug("user.deleted for unknown user; nothing to do", "clerk_id", externalID)
		return nil
	}

	var counts purgeCounts
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		counts, txErr = s.purger.purge(dbc.WithTx(tx), u.ID)
		return txErr
	})
	if err != nil {
		return apierr.Internal("user_delete_failed", err)
	}
	s.log.Info("Deleted user from webhook", "user_id", u.ID, "posts", counts.Posts, "messages", counts.Messages, "progress", counts.Progress)
	return nil
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	devFallbackEmail = "dev@example.com"
)

// ErrUnsupportedSimulation is returned for event types the simulator ignores.
var ErrUnsupportedSimulation = errors.New("Unsupported event type")

func (s *webhookService) SimulateEvent(ctx context.Context, eventType string, data json.RawMessage) (string, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" || len(data) == 0 || string(data) == "null" {
		return "", apierr.BadRequest("missing_fields", "Missing event type or data")
	}
	switch eventType {
	case EventUserCreated, EventUserUpdated, EventUserDeleted:
	default:
		return "", ErrUnsupportedSimulation
	}
	var user clerk.UserData
	if err := json.Unmarshal(data, &user); err != nil {
		return "", apierr.BadRequest("invalid_payload", "Malformed event data")
	}
	if strings.TrimSpace(user.ID) == "" {
		return "", apierr.BadRequest("missing_user_id", "Missing user ID")
	}
	s.log.Info("Simulating webhook", "type", eventType, "clerk_id", user.ID)

	switch eventType {
	case EventUserCreated, EventUserUpdated:
		profile := user.Profile()
		if profile.Email == "" {
			profile.Email = devFallbackEmail
		}
		if profile.ImageURL == "" {
			profile.ImageURL = UIAvatarsURL(profile.FirstName, profile.LastName)
		}
		created, err := s.upsert(ctx, profile)
		if err != nil {
			return "", err
		}
		if created {
			return ActionCreated, nil
		}
		return ActionUpdated, nil
	}
	if err := s.purge(ctx, user.ID); err != nil {
		return "", err
	}
	return ActionDeleted, nil
}
