package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// ProfileView is the full user row as the profile page reads it.
// Placeholder is set when the store could not be reached.
type ProfileView struct {
	ID            string            `json:"id,omitempty"`
	ClerkID       string            `json:"clerkId"`
	Email         string            `json:"email"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	ImageURL      string            `json:"imageUrl"`
	CoverImageURL string            `json:"coverImageUrl"`
	Bio           string            `json:"bio"`
	SocialLinks   types.SocialLinks `json:"socialLinks"`
	Metadata      map[string]any    `json:"metadata"`
	CreatedAt     *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time        `json:"updatedAt,omitempty"`
	Placeholder   bool              `json:"placeholder,omitempty"`
}

// ProfileUpdate holds the editable fields; nil means keep the stored value.
type ProfileUpdate struct {
	FirstName     *string            `json:"firstName"`
	LastName      *string            `json:"lastName"`
	Email         *string            `json:"email"`
	ImageURL      *string            `json:"imageUrl"`
	CoverImageURL *string            `json:"coverImageUrl"`
	Bio           *string            `json:"bio"`
	SocialLinks   *types.SocialLinks `json:"socialLinks"`
	Metadata      map[string]any     `json:"metadata"`
}

type ProfileService interface {
	Get(ctx context.Context, externalID string) (*ProfileView, error)
	Update(ctx context.Context, externalID string, in ProfileUpdate) (*ProfileView, error)
	Delete(ctx context.Context, externalID string) error
	UploadAvatar(ctx context.Context, externalID string, raw []byte) (*ProfileView, error)
}

type profileService struct {
	db       *gorm.DB
	log      *logger.Logger
	identity IdentityService
	userRepo repos.UserRepo
	avatars  AvatarService
	purger   accountPurger
}

func NewProfileService(
	db *gorm.DB,
	log *logger.Logger,
	identity IdentityService,
	avatars AvatarService,
	userRepo repos.UserRepo,
	postRepo repos.PostRepo,
	messageRepo repos.MessageRepo,
	progressRepo repos.UserProgressRepo,
) ProfileService {
	return &profileService{
		db:       db,
		log:      log.With("service", "ProfileService"),
		identity: identity,
		userRepo: userRepo,
		avatars:  avatars,
		purger:   accountPurger{users: userRepo, posts: postRepo, messages: messageRepo, progress: progressRepo},
	}
}

func NewProfileView(u *types.User) *ProfileView {
	meta := map[string]any(u.Metadata)
	if meta == nil {
		meta = map[string]any{}
	}
	created, updated := u.CreatedAt, u.UpdatedAt
	return &ProfileView{
		ID:            u.ID.String(),
		ClerkID:       u.ClerkID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		ImageURL:      u.ImageURL,
		CoverImageURL: u.CoverImageURL,
		Bio:           u.Bio,
		SocialLinks:   u.SocialLinks.Data(),
		Metadata:      meta,
		CreatedAt:     &created,
		UpdatedAt:     &updated,
	}
}

func placeholderProfile(externalID string) *ProfileView {
	return &ProfileView{
		ClerkID:     externalID,
		SocialLinks: types.SocialLinks{},
		Metadata:    map[string]any{},
		Placeholder: true,
	}
}

func (s *profileService) Get(ctx context.Context, externalID string) (*ProfileView, error) {
	u, err := s.identity.Reconcile(ctx, externalID)
	if err != nil {
		if apierr.StatusOf(err) < http.StatusInternalServerError {
			return nil, err
		}
		// The profile page stays usable while the database is down.
		s.log.Error("Profile lookup failed; serving placeholder", "clerk_id", externalID, "error", err)
		return placeholderProfile(externalID), nil
	}
	return NewProfileView(u), nil
}

func (s *profileService) Update(ctx context.Context, externalID string, in ProfileUpdate) (*ProfileView, error) {
	u, err := s.identity.Reconcile(ctx, externalID)
	if err != nil {
		return nil, err
	}
	applyProfileUpdate(u, in)
	if err := s.userRepo.Save(withCtx(ctx), u); err != nil {
		return nil, apierr.Internal("profile_update_failed", err)
	}
	return NewProfileView(u), nil
}

func applyProfileUpdate(u *types.User, in ProfileUpdate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.Email, in.Email)
	set(&u.ImageURL, in.ImageURL)
	set(&u.CoverImageURL, in.CoverImageURL)
	set(&u.Bio, in.Bio)
	if in.SocialLinks != nil {
		u.SocialLinks = datatypes.NewJSONType(*in.SocialLinks)
	}
	if in.Metadata != nil {
		u.Metadata = datatypes.JSONMap(in.Metadata)
	}
}

func (s *profileService) Delete(ctx context.Context, externalID string) error {
	dbc := withCtx(ctx)
	u, err := s.userRepo.GetByClerkID(dbc, externalID)
	if err != nil {
		return apierr.Internal("user_lookup_failed", err)
	}
	if u == nil {
		return apierr.NotFound("user_not_found", "User not found")
	}

	var counts purgeCounts
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		counts, txErr = s.purger.purge(dbc.WithTx(tx), u.ID)
		return txErr
	})
	if err != nil {
		return apierr.Internal("profile_delete_failed", err)
	}
	s.log.Info("Deleted profile", "user_id", u.ID, "posts", counts.Posts, "messages", counts.Messages, "progress", counts.Progress)
	return nil
}

func (s *profileService) UploadAvatar(ctx context.Context, externalID string, raw []byte) (*ProfileView, error) {
	if len(raw) == 0 {
		return nil, apierr.BadRequest("missing_file", "No file uploaded")
	}
	u, err := s.identity.Reconcile(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if s.avatars == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", ErrStorageUnavailable)
	}
	url, err := s.avatars.UploadAvatarImage(ctx, u.ID, raw)
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", err)
		}
		return nil, apierr.BadRequest("invalid_image", err.Error())
	}
	if err := s.userRepo.UpdateFields(withCtx(ctx), u.ID, map[string]interface{}{"image_url": url}); err != nil {
		return nil, apierr.Internal("profile_update_failed", err)
	}
	u.ImageURL = url
	return NewProfileView(u), nil
}
