package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

const AllCourses = "all"

type ProgressView struct {
	ID               string    `json:"_id,omitempty"`
	UserID           string    `json:"userId,omitempty"`
	CourseID         string    `json:"courseId,omitempty"`
	CompletedModules []string  `json:"completedModules"`
	LastAccessed     time.Time `json:"lastAccessed"`
}

type ProgressSummary struct {
	CompletedModules []string  `json:"completedModules"`
	TotalModules     int       `json:"totalModules"`
	LastAccessed     time.Time `json:"lastAccessed"`
}

type ProgressService interface {
	GetForCourse(ctx context.Context, userID uuid.UUID, courseID string) (*ProgressView, error)
	GetSummary(ctx context.Context, userID uuid.UUID) (*ProgressSummary, error)
	CompleteModule(ctx context.Context, userID uuid.UUID, courseID, moduleID string) (*ProgressView, error)
	// Reset empties the (user, course) record. The bool is false when there was none.
	Reset(ctx context.Context, userID uuid.UUID, courseID string) (*ProgressView, bool, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	courseRepo   repos.CourseRepo
	progressRepo repos.UserProgressRepo
	now          func() time.Time
}

func NewProgressService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, progressRepo repos.UserProgressRepo) ProgressService {
	return &progressService{
		db:           db,
		log:          log.With("service", "ProgressService"),
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func newProgressView(p *types.UserProgress) *ProgressView {
	return &ProgressView{
		ID:               p.ID.String(),
		UserID:           p.UserID.String(),
		CourseID:         p.CourseID.String(),
		CompletedModules: p.Completed(),
		LastAccessed:     p.LastAccessed,
	}
}

func (s *progressService) emptyView() *ProgressView {
	return &ProgressView{CompletedModules: []string{}, LastAccessed: s.now()}
}

func (s *progressService) GetForCourse(ctx context.Context, userID uuid.UUID, courseID string) (*ProgressView, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, apierr.BadRequest("missing_course_id", "Course ID is required")
	}
	id, ok := parseID(courseID)
	if !ok {
		return s.emptyView(), nil
	}
	dbc := withCtx(ctx)

	course, err := s.courseRepo.GetByID(dbc, id)
	if err != nil {
		return nil, apierr.Internal("progress_fetch_failed", err)
	}
	if course == nil {
		return s.emptyView(), nil
	}
	p, err := s.progressRepo.GetByUserAndCourse(dbc, userID, id)
	if err != nil {
		return nil, apierr.Internal("progress_fetch_failed", err)
	}
	if p == nil {
		return s.emptyView(), nil
	}
	return newProgressView(p), nil
}

func (s *progressService) GetSummary(ctx context.Context, userID uuid.UUID) (*ProgressSummary, error) {
	var (
		courses []*types.Course
		records []*types.UserProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = s.courseRepo.List(withCtx(gctx))
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.progressRepo.ListByUser(withCtx(gctx), userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Internal("progress_fetch_failed", err)
	}

	out := &ProgressSummary{CompletedModules: []string{}}
	for _, c := range courses {
		out.TotalModules += len(c.Modules)
	}
	for _, r := range records {
		seen := make(map[string]struct{}, len(r.CompletedModules))
		for _, m := range r.CompletedModules {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out.CompletedModules = append(out.CompletedModules, m)
		}
		if r.LastAccessed.After(out.LastAccessed) {
			out.LastAccessed = r.LastAccessed
		}
	}
	if out.LastAccessed.IsZero() {
		out.LastAccessed = s.now()
	}
	return out, nil
}

func (s *progressService) CompleteModule(ctx context.Context, userID uuid.UUID, courseID, moduleID string) (*ProgressView, error) {
	moduleID = strings.TrimSpace(moduleID)
	if strings.TrimSpace(courseID) == "" || moduleID == "" {
		return nil, apierr.BadRequest("missing_fields", "Course ID and module ID are required")
	}
	id, ok := parseID(courseID)
	if !ok {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	course, err := s.courseRepo.GetByID(withCtx(ctx), id)
	if err != nil {
		return nil, apierr.Internal("progress_update_failed", err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	if !course.HasModule(moduleID) {
		return nil, apierr.BadRequest("unknown_module", "Module does not belong to this course")
	}

	var out *types.UserProgress
	attempt := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := withCtx(ctx).WithTx(tx)
			p, err := s.progressRepo.GetByUserAndCourseForUpdate(dbc, userID, id)
			if err != nil {
				return err
			}
			if p == nil {
				p = &types.UserProgress{
					UserID:           userID,
					CourseID:         id,
					CompletedModules: datatypes.JSONSlice[string]{moduleID},
					LastAccessed:     s.now(),
				}
				out, err = s.progressRepo.Create(dbc, p)
				return err
			}
			p.AddModule(moduleID)
			p.LastAccessed = s.now()
			out = p
			return s.progressRepo.Save(dbc, p)
		})
	}

	err = attempt()
	if IsUniqueViolation(err) {
		// Another request created the record between our read and insert.
		err = attempt()
	}
	if err != nil {
		return nil, apierr.Internal("progress_update_failed", err)
	}
	return newProgressView(out), nil
}

func (s *progressService) Reset(ctx context.Context, userID uuid.UUID, courseID string) (*ProgressView, bool, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, false, apierr.BadRequest("missing_course_id", "Course ID is required")
	}
	id, ok := parseID(courseID)
	if !ok {
		return nil, false, nil
	}

	var out *types.UserProgress
	errNone := errors.New("no progress")
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := withCtx(ctx).WithTx(tx)
		p, err := s.progressRepo.GetByUserAndCourseForUpdate(dbc, userID, id)
		if err != nil {
			return err
		}
		if p == nil {
			return errNone
		}
		p.CompletedModules = datatypes.JSONSlice[string]{}
		p.LastAccessed = s.now()
		out = p
		return s.progressRepo.Save(dbc, p)
	})
	if errors.Is(err, errNone) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apierr.Internal("progress_reset_failed", err)
	}
	s.log.Info("Progress reset", "user_id", userID, "course_id", id)
	return newProgressView(out), true, nil
}
