package services

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// DedupeGroup is one set of courses sharing a title.
type DedupeGroup struct {
	Title   string
	Keep    *types.Course
	Discard []*types.Course
}

func (g DedupeGroup) DiscardIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Discard))
	for _, c := range g.Discard {
		ids = append(ids, c.ID)
	}
	return ids
}

type DedupeResult struct {
	Groups          int
	CoursesDeleted  int64
	ProgressDeleted int64
}

// PlanCourseDedupe groups courses by trimmed title. In every group with more
// than one course the one with the most modules survives; ties go to the
// oldest. Groups come back sorted by title.
func PlanCourseDedupe(courses []*types.Course) []DedupeGroup {
	byTitle := map[string][]*types.Course{}
	for _, c := range courses {
		if c == nil {
			continue
		}
		key := strings.TrimSpace(c.Title)
		byTitle[key] = append(byTitle[key], c)
	}

	out := make([]DedupeGroup, 0)
	for title, group := range byTitle {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if len(a.Modules) != len(b.Modules) {
				return len(a.Modules) > len(b.Modules)
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID.String() < b.ID.String()
		})
		out = append(out, DedupeGroup{Title: title, Keep: group[0], Discard: group[1:]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// CourseDeduper removes duplicate courses and the progress rows pointing at them.
type CourseDeduper struct {
	db           *gorm.DB
	log          *logger.Logger
	courseRepo   repos.CourseRepo
	progressRepo repos.UserProgressRepo
	Concurrency  int
}

func NewCourseDeduper(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, progressRepo repos.UserProgressRepo) *CourseDeduper {
	return &CourseDeduper{
		db:           db,
		log:          log.With("service", "CourseDeduper"),
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		Concurrency:  4,
	}
}

// Run plans and, unless dryRun, applies the cleanup. Each group is deleted in
// its own transaction, progress first.
func (d *CourseDeduper) Run(ctx context.Context, dryRun bool) ([]DedupeGroup, DedupeResult, error) {
	courses, err := d.courseRepo.List(withCtx(ctx))
	if err != nil {
		return nil, DedupeResult{}, err
	}
	plan := PlanCourseDedupe(courses)
	res := DedupeResult{Groups: len(plan)}

	for _, g := range plan {
		d.log.Info("Duplicate course group",
			"title", g.Title,
			"keep", g.Keep.ID,
			"keep_modules", len(g.Keep.Modules),
			"discard", g.DiscardIDs(),
			"dry_run", dryRun,
		)
	}
	if dryRun || len(plan) == 0 {
		return plan, res, nil
	}

	deleted := make([]DedupeResult, len(plan))
	eg, gctx := errgroup.WithContext(ctx)
	if d.Concurrency > 0 {
		eg.SetLimit(d.Concurrency)
	}
	for i, g := range plan {
		eg.Go(func() error {
			ids := g.DiscardIDs()
			return d.db.WithContext(gctx).Transaction(func(tx *gorm.DB) error {
				dbc := withCtx(gctx).WithTx(tx)
				progress, err := d.progressRepo.FullDeleteByCourseIDs(dbc, ids)
				if err != nil {
					return err
				}
				n, err := d.courseRepo.FullDeleteByIDs(dbc, ids)
				if err != nil {
					return err
				}
				deleted[i] = DedupeResult{CoursesDeleted: n, ProgressDeleted: progress}
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return plan, res, err
	}
	for _, r := range deleted {
		res.CoursesDeleted += r.CoursesDeleted
		res.ProgressDeleted += r.ProgressDeleted
	}
	d.log.Info("Duplicate courses removed", "courses", res.CoursesDeleted, "progress_rows", res.ProgressDeleted)
	return plan, res, nil
}
