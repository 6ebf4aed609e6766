package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByClerkID(dbc dbctx.Context, clerkID string) (*types.User, error)
	List(dbc dbctx.Context) ([]*types.User, error)
	Save(dbc dbctx.Context, u *types.User) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) Create(dbc dbctx.Context, u *types.User) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	if err := t.WithContext(dbc.Ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (ur *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := ur.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByClerkID returns nil, nil when no row carries the external id.
func (ur *userRepo) GetByClerkID(dbc dbctx.Context, clerkID string) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, nil
	}
	var out []*types.User
	if err := t.WithContext(dbc.Ctx).
		Where("clerk_id = ?", clerkID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (ur *userRepo) List(dbc dbctx.Context) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	var out []*types.User
	if err := t.WithContext(dbc.Ctx).
		Order("first_name ASC").
		Order("last_name ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (ur *userRepo) Save(dbc dbctx.Context, u *types.User) error {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	return t.WithContext(dbc.Ctx).Save(u).Error
}

func (ur *userRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (ur *userRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = ur.db
	}
	return t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.User{}).Error
}
