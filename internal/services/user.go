package services

import (
	"context"
	"strings"
	"time"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// DirectoryEntry is the public slice of a user row.
type DirectoryEntry struct {
	ID        string    `json:"id"`
	ClerkID   string    `json:"clerkId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	ImageURL  string    `json:"imageUrl"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserService interface {
	List(ctx context.Context) ([]DirectoryEntry, error)
	GetByExternalID(ctx context.Context, externalID string) (*DirectoryEntry, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func newDirectoryEntry(u *types.User) DirectoryEntry {
	return DirectoryEntry{
		ID:        u.ID.String(),
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

func (s *userService) List(ctx context.Context) ([]DirectoryEntry, error) {
	rows, err := s.userRepo.List(withCtx(ctx))
	if err != nil {
		return nil, apierr.Internal("users_fetch_failed", err)
	}
	out := make([]DirectoryEntry, 0, len(rows))
	for _, u := range rows {
		out = append(out, newDirectoryEntry(u))
	}
	return out, nil
}

func (s *userService) GetByExternalID(ctx context.Context, externalID string) (*DirectoryEntry, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, apierr.BadRequest("missing_user_id", "User ID is required")
	}
	u, err := s.userRepo.GetByClerkID(withCtx(ctx), externalID)
	if err != nil {
		return nil, apierr.Internal("user_lookup_failed", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user_not_found", "User not found")
	}
	e := newDirectoryEntry(u)
	return &e, nil
}
