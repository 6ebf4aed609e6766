package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
)

func intPtr(v int) *int { return &v }

func validCourseInput() CourseInput {
	return CourseInput{
		Title:       "Komodo Dragon Conservation",
		Description: "Habitat and threats",
		Level:       "Beginner",
		Modules: []ModuleInput{
			{ID: "intro", Title: "Introduction", Content: "# Intro", Order: intPtr(2)},
			{ID: "habitat", Title: "Habitat", Content: "Islands", Order: intPtr(1)},
		},
	}
}

func TestBuildCourseFields(t *testing.T) {
	c, err := BuildCourseFields(CourseInput{
		Title:       "Tigers",
		Description: "Stripes",
		Level:       "Advanced",
		Thumbnail:   "/images/tiger.jpg",
		Modules:     []ModuleInput{{Title: "One"}, {AltID: "two", Title: "Two"}},
	})
	require.NoError(t, err)
	require.Len(t, c.Modules, 2)
	assert.NotEmpty(t, c.Modules[0].ID)
	assert.Equal(t, 1, c.Modules[0].Order)
	assert.Equal(t, "two", c.Modules[1].ID)
	assert.Equal(t, 2, c.Modules[1].Order)
	assert.Equal(t, "/images/tiger.jpg", c.ImageURL)

	cases := []struct {
		name string
		in   CourseInput
		code string
	}{
		{name: "no title", in: CourseInput{Description: "d", Level: "l", Modules: []ModuleInput{{Title: "m"}}}, code: "missing_fields"},
		{name: "no modules", in: CourseInput{Title: "t", Description: "d", Level: "l"}, code: "missing_modules"},
		{name: "duplicate ids", in: CourseInput{Title: "t", Description: "d", Level: "l", Modules: []ModuleInput{{ID: "a", Title: "A"}, {AltID: "a", Title: "B"}}}, code: "duplicate_module_id"},
		{name: "untitled module", in: CourseInput{Title: "t", Description: "d", Level: "l", Modules: []ModuleInput{{ID: "a"}}}, code: "missing_fields"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildCourseFields(tc.in)
			assert.Equal(t, tc.code, codeOf(err))
		})
	}
}

func TestCourseServiceCRUD(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.db, env.log, env.courses, env.progress)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCourseInput())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultCourseThumbnail, created.Thumbnail)
	require.Len(t, created.Modules, 2)
	assert.Equal(t, "habitat", created.Modules[0].ID, "modules are ordered by their order field")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	in := validCourseInput()
	in.Title = "Komodo Dragons"
	in.Modules = append(in.Modules, ModuleInput{ID: "threats", Title: "Threats", Order: intPtr(3)})
	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Komodo Dragons", updated.Title)
	assert.Len(t, updated.Modules, 3)

	in.Modules = append(in.Modules, ModuleInput{ID: "intro", Title: "Again"})
	_, err = svc.Update(ctx, created.ID, in)
	assert.Equal(t, "duplicate_module_id", codeOf(err))

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		_, err = svc.Get(ctx, id)
		assert.Equal(t, "course_not_found", codeOf(err))
		_, err = svc.Update(ctx, id, validCourseInput())
		assert.Equal(t, "course_not_found", codeOf(err))
		_, err = svc.Delete(ctx, id)
		assert.Equal(t, "course_not_found", codeOf(err))
	}
}

func TestCourseDeleteRemovesProgress(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCourseService(env.db, env.log, env.courses, env.progress)
	u := testutil.SeedUser(t, env.db, "user_p", "P", "")
	doomed := testutil.SeedCourse(t, env.db, "Doomed", "d1")
	kept := testutil.SeedCourse(t, env.db, "Kept", "k1")
	testutil.SeedProgress(t, env.db, u.ID, doomed.ID, "d1")
	testutil.SeedProgress(t, env.db, u.ID, kept.ID, "k1")

	v, err := svc.Delete(context.Background(), doomed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Doomed", v.Title)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.Course{}))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.UserProgress{}))
}
