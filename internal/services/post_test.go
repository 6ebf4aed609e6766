package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
)

func TestPostFeedNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.log, env.posts)
	named := testutil.SeedUser(t, env.db, "user_a", "Ada", "Ranger")
	nameless := testutil.SeedUser(t, env.db, "user_b", "", "")
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	testutil.SeedPost(t, env.db, named.ID, "older", base)
	testutil.SeedPost(t, env.db, nameless.ID, "newer", base.Add(time.Hour))

	feed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "newer", feed[0].Content)
	assert.Equal(t, AnonymousAuthor, feed[0].Author)
	assert.Equal(t, "user_b", feed[0].UserID)
	assert.Equal(t, "Ada Ranger", feed[1].Author)
	assert.Equal(t, named.ImageURL, feed[1].AuthorImage)
	assert.Equal(t, types.DefaultPostTitle, feed[1].Title)
	assert.NotNil(t, feed[1].Media)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.log, env.posts)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.db, "user_a", "Ada", "")

	v, err := svc.Create(ctx, u, PostInput{Media: []types.MediaItem{{Type: "IMAGE", URL: "https://cdn.test/a.png"}}})
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPostTitle, v.Title)
	assert.Equal(t, "Ada", v.Author)
	assert.Equal(t, []types.MediaItem{{Type: types.MediaTypeImage, URL: "https://cdn.test/a.png"}}, v.Media)

	_, err = svc.Create(ctx, u, PostInput{Title: "Only a title", Content: "  "})
	assert.Equal(t, "empty_post", codeOf(err))
	_, err = svc.Create(ctx, u, PostInput{Content: "x", Media: []types.MediaItem{{Type: "audio", URL: "https://cdn.test/a.mp3"}}})
	assert.Equal(t, "invalid_media", codeOf(err))
	_, err = svc.Create(ctx, u, PostInput{Content: "x", Media: []types.MediaItem{{Type: "video"}}})
	assert.Equal(t, "invalid_media", codeOf(err))

	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.Post{}))
}

func TestDeletePostOnlyByAuthor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPostService(env.log, env.posts)
	ctx := context.Background()
	author := testutil.SeedUser(t, env.db, "user_a", "A", "")
	intruder := testutil.SeedUser(t, env.db, "user_b", "B", "")
	p := testutil.SeedPost(t, env.db, author.ID, "mine", time.Now().UTC())

	err := svc.Delete(ctx, intruder.ID, p.ID.String())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))
	assert.Equal(t, "not_author", codeOf(err))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.Post{}))

	assert.Equal(t, "missing_post_id", codeOf(svc.Delete(ctx, author.ID, "")))
	assert.Equal(t, "post_not_found", codeOf(svc.Delete(ctx, author.ID, "nope")))

	require.NoError(t, svc.Delete(ctx, author.ID, p.ID.String()))
	assert.Zero(t, testutil.Count(t, env.db, &types.Post{}))
	assert.Equal(t, "post_not_found", codeOf(svc.Delete(ctx, author.ID, p.ID.String())))
}
