package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	List(dbc dbctx.Context) ([]*types.Course, error)
	Count(dbc dbctx.Context) (int64, error)
	Save(dbc dbctx.Context, c *types.Course) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Course
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

func (r *courseRepo) List(dbc dbctx.Context) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Course
	if err := t.WithContext(dbc.Ctx).
		Order("created_at ASC").
		Order("title ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *courseRepo) Count(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).Model(&types.Course{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *courseRepo) Save(dbc dbctx.Context, c *types.Course) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Save(c).Error
}

func (r *courseRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Course{})
	return res.RowsAffected, res.Error
}
