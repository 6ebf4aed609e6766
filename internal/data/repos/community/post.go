package community

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// PostWithAuthor is a feed row: the post plus the author columns it is shown with.
// Author fields are empty when the author row is gone.
type PostWithAuthor struct {
	types.Post
	AuthorClerkID   string
	AuthorFirstName string
	AuthorLastName  string
	AuthorImageURL  string
}

type PostRepo interface {
	Create(dbc dbctx.Context, p *types.Post) (*types.Post, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error)
	ListFeed(dbc dbctx.Context) ([]*PostWithAuthor, error)
	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error
	FullDeleteByAuthorID(dbc dbctx.Context, authorID uuid.UUID) (int64, error)
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return &postRepo{db: db, log: baseLog.With("repo", "PostRepo")}
}

func (r *postRepo) Create(dbc dbctx.Context, p *types.Post) (*types.Post, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Post, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Post
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *postRepo) ListFeed(dbc dbctx.Context) ([]*PostWithAuthor, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*PostWithAuthor
	if err := t.WithContext(dbc.Ctx).
		Table("posts").
		Select(`posts.*,
			users.clerk_id AS author_clerk_id,
			users.first_name AS author_first_name,
			users.last_name AS author_last_name,
			users.image_url AS author_image_url`).
		Joins("LEFT JOIN users ON users.id = posts.author_id").
		Order("posts.created_at DESC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Post{}).Error
}

func (r *postRepo) FullDeleteByAuthorID(dbc dbctx.Context, authorID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("author_id = ?", authorID).
		Delete(&types.Post{})
	return res.RowsAffected, res.Error
}
