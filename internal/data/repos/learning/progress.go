package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type UserProgressRepo interface {
	Create(dbc dbctx.Context, p *types.UserProgress) (*types.UserProgress, error)
	GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.UserProgress, error)
	GetByUserAndCourseForUpdate(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.UserProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserProgress, error)
	CountByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Save(dbc dbctx.Context, p *types.UserProgress) error
	FullDeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (int64, error)
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return &userProgressRepo{db: db, log: baseLog.With("repo", "UserProgressRepo")}
}

func (r *userProgressRepo) Create(dbc dbctx.Context, p *types.UserProgress) (*types.UserProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *userProgressRepo) GetByUserAndCourse(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.UserProgress, error) {
	return r.get(dbc, userID, courseID, false)
}

// GetByUserAndCourseForUpdate row-locks on Postgres; SQLite serialises writers anyway.
func (r *userProgressRepo) GetByUserAndCourseForUpdate(dbc dbctx.Context, userID, courseID uuid.UUID) (*types.UserProgress, error) {
	return r.get(dbc, userID, courseID, true)
}

func (r *userProgressRepo) get(dbc dbctx.Context, userID, courseID uuid.UUID, lock bool) (*types.UserProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID)
	if lock && t.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*types.UserProgress
	if err := q.Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *userProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("last_accessed DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userProgressRepo) CountByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := make(map[uuid.UUID]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CourseID uuid.UUID
		N        int64
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.UserProgress{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CourseID] = row.N
	}
	return out, nil
}

func (r *userProgressRepo) Save(dbc dbctx.Context, p *types.UserProgress) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Save(p).Error
}

func (r *userProgressRepo) FullDeleteByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserProgress{})
	return res.RowsAffected, res.Error
}

func (r *userProgressRepo) FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(courseIDs) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("course_id IN ?", courseIDs).
		Delete(&types.UserProgress{})
	return res.RowsAffected, res.Error
}
