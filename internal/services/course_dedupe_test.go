package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
)

func course(title string, modules int, created time.Time) *types.Course {
	c := &types.Course{ID: uuid.New(), Title: title, CreatedAt: created}
	for i := 0; i < modules; i++ {
		c.Modules = append(c.Modules, types.Module{ID: uuid.NewString(), Order: i + 1})
	}
	return c
}

func TestPlanCourseDedupe(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	richer := course("Komodo Basics", 5, base.Add(time.Hour))
	poorer := course("Komodo Basics", 2, base)
	older := course("Habitats", 3, base)
	newer := course("Habitats ", 3, base.Add(time.Minute))
	single := course("Diet", 1, base)

	plan := PlanCourseDedupe([]*types.Course{poorer, newer, single, richer, older, nil})
	require.Len(t, plan, 2)

	assert.Equal(t, "Habitats", plan[0].Title)
	assert.Equal(t, older.ID, plan[0].Keep.ID, "ties go to the oldest")
	assert.Equal(t, []uuid.UUID{newer.ID}, plan[0].DiscardIDs())

	assert.Equal(t, "Komodo Basics", plan[1].Title)
	assert.Equal(t, richer.ID, plan[1].Keep.ID, "most modules wins over age")
	assert.Equal(t, []uuid.UUID{poorer.ID}, plan[1].DiscardIDs())
}

func TestPlanCourseDedupeNoDuplicates(t *testing.T) {
	plan := PlanCourseDedupe([]*types.Course{course("A", 1, time.Now()), course("B", 1, time.Now())})
	assert.Empty(t, plan)
}

func TestCourseDeduperRun(t *testing.T) {
	env := newTestEnv(t)
	d := NewCourseDeduper(env.db, env.log, env.courses, env.progress)
	ctx := context.Background()

	u := testutil.SeedUser(t, env.db, "user_dd", "D", "")
	keep := testutil.SeedCourse(t, env.db, "Reptiles", "r1", "r2", "r3")
	dupA := testutil.SeedCourse(t, env.db, "Reptiles", "r1")
	dupB := testutil.SeedCourse(t, env.db, "Reptiles", "r1", "r2")
	other := testutil.SeedCourse(t, env.db, "Islands", "i1")
	testutil.SeedProgress(t, env.db, u.ID, keep.ID, "r1")
	testutil.SeedProgress(t, env.db, u.ID, dupA.ID, "r1")
	testutil.SeedProgress(t, env.db, u.ID, other.ID, "i1")

	t.Run("dry run leaves everything", func(t *testing.T) {
		plan, res, err := d.Run(ctx, true)
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, keep.ID, plan[0].Keep.ID)
		assert.ElementsMatch(t, []uuid.UUID{dupA.ID, dupB.ID}, plan[0].DiscardIDs())
		assert.Zero(t, res.CoursesDeleted)
		assert.EqualValues(t, 4, testutil.Count(t, env.db, &types.Course{}))
		assert.EqualValues(t, 3, testutil.Count(t, env.db, &types.UserProgress{}))
	})

	t.Run("apply deletes duplicates and their progress", func(t *testing.T) {
		_, res, err := d.Run(ctx, false)
		require.NoError(t, err)
		assert.EqualValues(t, 2, res.CoursesDeleted)
		assert.EqualValues(t, 1, res.ProgressDeleted)

		rows, err := env.courses.List(withCtx(ctx))
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(rows))
		for _, c := range rows {
			ids = append(ids, c.ID)
		}
		assert.ElementsMatch(t, []uuid.UUID{keep.ID, other.ID}, ids)
		assert.EqualValues(t, 2, testutil.Count(t, env.db, &types.UserProgress{}))
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		plan, res, err := d.Run(ctx, false)
		require.NoError(t, err)
		assert.Empty(t, plan)
		assert.Zero(t, res.CoursesDeleted)
	})
}

const catalogYAML = `
courses:
  - title: Komodo Dragons 101
    description: Meet the largest living lizard.
    level: Beginner
    modules:
      - id: intro
        title: Introduction
        content: Where they live.
      - id: diet
        title: Diet
        content: What they eat.
        order: 5
  - title: Island Habitats
    description: Savanna, forest and coast.
    level: Intermediate
    imageUrl: https://img.example.com/islands.png
    modules:
      - title: Savanna
        content: Dry grassland.
`

func TestParseCourseCatalog(t *testing.T) {
	cat, err := ParseCourseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)
	require.Len(t, cat.Courses, 2)
	assert.Equal(t, "Komodo Dragons 101", cat.Courses[0].Title)
	require.Len(t, cat.Courses[0].Modules, 2)
	assert.Equal(t, "diet", cat.Courses[0].Modules[1].ID)
	require.NotNil(t, cat.Courses[0].Modules[1].Order)
	assert.Equal(t, 5, *cat.Courses[0].Modules[1].Order)

	_, err = ParseCourseCatalog(strings.NewReader("courses:\n  - titel: typo\n"))
	assert.Error(t, err, "unknown keys are rejected")

	empty, err := ParseCourseCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Courses)
}

func TestCourseSeed(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.db, env.log, env.courses, env.progress)
	ctx := context.Background()
	cat, err := ParseCourseCatalog(strings.NewReader(catalogYAML))
	require.NoError(t, err)

	n, err := svc.Seed(ctx, cat, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	byTitle := map[string]CourseView{}
	for _, v := range views {
		byTitle[v.Title] = v
	}
	intro := byTitle["Komodo Dragons 101"]
	require.Len(t, intro.Modules, 2)
	assert.Equal(t, "intro", intro.Modules[0].ID)
	assert.Equal(t, 1, intro.Modules[0].Order)
	assert.Equal(t, 5, intro.Modules[1].Order)
	assert.NotEmpty(t, byTitle["Island Habitats"].Modules[0].ID, "blank module ids are generated")

	n, err = svc.Seed(ctx, cat, false)
	require.NoError(t, err)
	assert.Zero(t, n, "existing courses block a second seed")

	n, err = svc.Seed(ctx, cat, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.EqualValues(t, 4, testutil.Count(t, env.db, &types.Course{}))
}

func TestCourseSeedRejectsInvalidCatalog(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.db, env.log, env.courses, env.progress)
	cat := &CourseCatalog{Courses: []CourseInput{{
		Title: "Dupes", Description: "d", Level: "Beginner",
		Modules: []ModuleInput{{ID: "m", Title: "One"}, {ID: "m", Title: "Two"}},
	}}}

	_, err := svc.Seed(context.Background(), cat, false)
	require.Error(t, err)
	assert.Equal(t, "duplicate_module_id", codeOf(err))
	assert.EqualValues(t, 0, testutil.Count(t, env.db, &types.Course{}))
}

func TestShippedCatalogIsValid(t *testing.T) {
	cat, err := LoadCourseCatalog("../../configs/courses.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, cat.Courses)
	for _, in := range cat.Courses {
		_, err := BuildCourseFields(in)
		assert.NoError(t, err, in.Title)
	}
}
