package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// IdentityService maps an identity provider subject to a local user,
// provisioning the row on first sight.
type IdentityService interface {
	Reconcile(ctx context.Context, externalID string) (*types.User, error)
}

type identityService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
	profiles clerk.Client
	avatars  AvatarService
}

func NewIdentityService(log *logger.Logger, userRepo repos.UserRepo, profiles clerk.Client, avatars AvatarService) IdentityService {
	return &identityService{
		log:      log.With("service", "IdentityService"),
		userRepo: userRepo,
		profiles: profiles,
		avatars:  avatars,
	}
}

func (s *identityService) Reconcile(ctx context.Context, externalID string) (*types.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apierr.Unauthorized("unauthorized", "Unauthorized")
	}
	dbc := withCtx(ctx)

	existing, err := s.userRepo.GetByClerkID(dbc, externalID)
	if err != nil {
		observability.Current().IncReconcile("error")
		return nil, apierr.Internal("user_lookup_failed", err)
	}
	if existing != nil {
		observability.Current().IncReconcile("existing")
		return existing, nil
	}

	u := s.newUser(ctx, externalID)
	created, err := s.userRepo.Create(dbc, u)
	if err == nil {
		observability.Current().IncReconcile("created")
		s.log.Info("Provisioned user on demand", "clerk_id", externalID, "user_id", created.ID)
		s.attachInitialsAvatar(ctx, created)
		return created, nil
	}
	if !IsUniqueViolation(err) {
		observability.Current().IncReconcile("error")
		return nil, apierr.Internal("user_create_failed", err)
	}

	// A concurrent request or the webhook inserted the row first.
	winner, rerr := s.userRepo.GetByClerkID(dbc, externalID)
	if rerr != nil || winner == nil {
		observability.Current().IncReconcile("error")
		return nil, apierr.Internal("user_create_failed", fmt.Errorf("re-read after duplicate insert: %w", errors.Join(err, rerr)))
	}
	observability.Current().IncReconcile("raced")
	return winner, nil
}

func (s *identityService) newUser(ctx context.Context, externalID string) *types.User {
	u := &types.User{
		ID:      uuid.New(),
		ClerkID: externalID,
		Email:   types.PendingEmail,
	}

	if s.profiles != nil {
		p, err := s.profiles.GetUser(ctx, externalID)
		switch {
		case err == nil && p != nil:
			u.FirstName = p.FirstName
			u.LastName = p.LastName
			if p.Email != "" {
				u.Email = p.Email
			}
			u.ImageURL = p.ImageURL
		case errors.Is(err, clerk.ErrNotConfigured):
		default:
			s.log.Warn("Identity provider profile fetch failed; provisioning with defaults", "clerk_id", externalID, "error", err)
		}
	}

	if u.ImageURL == "" {
		u.ImageURL = UIAvatarsURL(u.FirstName, u.LastName)
	}
	return u
}

// attachInitialsAvatar replaces the ui-avatars placeholder with a stored
// initials image. It runs only for the request whose insert won, so a lost
// race never leaves an object behind.
func (s *identityService) attachInitialsAvatar(ctx context.Context, u *types.User) {
	if s.avatars == nil || u.ImageURL != UIAvatarsURL(u.FirstName, u.LastName) {
		return
	}
	url := s.avatars.DefaultAvatarURL(ctx, u.ID, u.FirstName, u.LastName)
	if url == u.ImageURL {
		return
	}
	if err := s.userRepo.UpdateFields(withCtx(ctx), u.ID, map[string]interface{}{"image_url": url}); err != nil {
		s.log.Warn("Initials avatar stored but not linked; keeping placeholder", "user_id", u.ID, "error", err)
		return
	}
	u.ImageURL = url
}
