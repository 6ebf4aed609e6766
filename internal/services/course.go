package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type ModuleView struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

type CourseView struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Thumbnail   string       `json:"thumbnail"`
	Level       string       `json:"level"`
	Modules     []ModuleView `json:"modules"`
}

// ModuleInput accepts both "_id" and "id" for the module identifier.
type ModuleInput struct {
	ID      string `json:"_id" yaml:"id"`
	AltID   string `json:"id" yaml:"-"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	Order   *int   `json:"order" yaml:"order"`
}

type CourseInput struct {
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	ImageURL    string        `json:"imageUrl" yaml:"imageUrl"`
	Thumbnail   string        `json:"thumbnail" yaml:"-"`
	Level       string        `json:"level" yaml:"level"`
	Modules     []ModuleInput `json:"modules" yaml:"modules"`
}

type CourseService interface {
	List(ctx context.Context) ([]CourseView, error)
	Get(ctx context.Context, courseID string) (*CourseView, error)
	Create(ctx context.Context, in CourseInput) (*CourseView, error)
	Update(ctx context.Context, courseID string, in CourseInput) (*CourseView, error)
	Delete(ctx context.Context, courseID string) (*CourseView, error)
	Seed(ctx context.Context, cat *CourseCatalog, force bool) (int, error)
}

type courseService struct {
	db           *gorm.DB
	log          *logger.Logger
	courseRepo   repos.CourseRepo
	progressRepo repos.UserProgressRepo
}

func NewCourseService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, progressRepo repos.UserProgressRepo) CourseService {
	return &courseService{
		db:           db,
		log:          log.With("service", "CourseService"),
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
	}
}

func NewCourseView(c *types.Course) CourseView {
	thumb := strings.TrimSpace(c.ImageURL)
	if thumb == "" {
		thumb = types.DefaultCourseThumbnail
	}
	mods := c.OrderedModules()
	views := make([]ModuleView, 0, len(mods))
	for _, m := range mods {
		views = append(views, ModuleView{ID: m.ID, Title: m.Title, Content: m.Content, Order: m.Order})
	}
	return CourseView{
		ID:          c.ID.String(),
		Title:       c.Title,
		Description: c.Description,
		Thumbnail:   thumb,
		Level:       c.Level,
		Modules:     views,
	}
}

// BuildCourseFields validates in and returns the course columns it describes.
// Module ids must be unique within the course; blank ids are generated and
// missing orders default to the module's position.
func BuildCourseFields(in CourseInput) (*types.Course, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	level := strings.TrimSpace(in.Level)
	if title == "" || desc == "" || level == "" {
		return nil, apierr.BadRequest("missing_fields", "Title, description and level are required")
	}
	if len(in.Modules) == 0 {
		return nil, apierr.BadRequest("missing_modules", "At least one module is required")
	}

	seen := make(map[string]struct{}, len(in.Modules))
	modules := make(datatypes.JSONSlice[types.Module], 0, len(in.Modules))
	for i, m := range in.Modules {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			id = strings.TrimSpace(m.AltID)
		}
		if id == "" {
			id = xid.New().String()
		}
		if _, dup := seen[id]; dup {
			return nil, apierr.BadRequest("duplicate_module_id", fmt.Sprintf("Duplicate module id: %s", id))
		}
		seen[id] = struct{}{}

		mt := strings.TrimSpace(m.Title)
		if mt == "" {
			return nil, apierr.BadRequest("missing_fields", fmt.Sprintf("Module %d is missing a title", i+1))
		}
		order := i + 1
		if m.Order != nil {
			order = *m.Order
		}
		modules = append(modules, types.Module{ID: id, Title: mt, Content: m.Content, Order: order})
	}

	image := strings.TrimSpace(in.ImageURL)
	if image == "" {
		image = strings.TrimSpace(in.Thumbnail)
	}
	if image == types.DefaultCourseThumbnail {
		image = ""
	}
	return &types.Course{
		Title:       title,
		Description: desc,
		ImageURL:    image,
		Level:       level,
		Modules:     modules,
	}, nil
}

func (s *courseService) List(ctx context.Context) ([]CourseView, error) {
	rows, err := s.courseRepo.List(withCtx(ctx))
	if err != nil {
		return nil, apierr.Internal("courses_fetch_failed", err)
	}
	out := make([]CourseView, 0, len(rows))
	for _, c := range rows {
		out = append(out, NewCourseView(c))
	}
	return out, nil
}

func (s *courseService) load(ctx context.Context, courseID string) (*types.Course, error) {
	id, ok := parseID(courseID)
	if !ok {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	c, err := s.courseRepo.GetByID(withCtx(ctx), id)
	if err != nil {
		return nil, apierr.Internal("course_fetch_failed", err)
	}
	if c == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	return c, nil
}

func (s *courseService) Get(ctx context.Context, courseID string) (*CourseView, error) {
	c, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	v := NewCourseView(c)
	return &v, nil
}

func (s *courseService) Create(ctx context.Context, in CourseInput) (*CourseView, error) {
	c, err := BuildCourseFields(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.Create(withCtx(ctx), []*types.Course{c}); err != nil {
		return nil, apierr.Internal("course_create_failed", err)
	}
	s.log.Info("Course created", "course_id", c.ID, "modules", len(c.Modules))
	v := NewCourseView(c)
	return &v, nil
}

func (s *courseService) Update(ctx context.Context, courseID string, in CourseInput) (*CourseView, error) {
	existing, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	next, err := BuildCourseFields(in)
	if err != nil {
		return nil, err
	}
	existing.Title = next.Title
	existing.Description = next.Description
	existing.ImageURL = next.ImageURL
	existing.Level = next.Level
	existing.Modules = next.Modules
	if err := s.courseRepo.Save(withCtx(ctx), existing); err != nil {
		return nil, apierr.Internal("course_update_failed", err)
	}
	v := NewCourseView(existing)
	return &v, nil
}

func (s *courseService) Delete(ctx context.Context, courseID string) (*CourseView, error) {
	c, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	var removed int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := withCtx(ctx).WithTx(tx)
		n, err := s.progressRepo.FullDeleteByCourseIDs(dbc, []uuid.UUID{c.ID})
		if err != nil {
			return err
		}
		removed = n
		_, err = s.courseRepo.FullDeleteByIDs(dbc, []uuid.UUID{c.ID})
		return err
	})
	if err != nil {
		return nil, apierr.Internal("course_delete_failed", err)
	}
	s.log.Info("Course deleted", "course_id", c.ID, "progress_rows", removed)
	v := NewCourseView(c)
	return &v, nil
}
