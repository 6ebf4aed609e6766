package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos"
	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
)

func TestReconcileRejectsEmptyExternalID(t *testing.T) {
	env := newTestEnv(t)
	svc := env.identity(nil)

	for _, id := range []string{"", "   "} {
		_, err := svc.Reconcile(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apierr.StatusOf(err))
		assert.Equal(t, "unauthorized", codeOf(err))
	}
	assert.Zero(t, testutil.Count(t, env.db, &types.User{}))
}

func TestReconcileCreatesOnceThenReuses(t *testing.T) {
	env := newTestEnv(t)
	svc := env.identity(nil)
	ctx := context.Background()

	first, err := svc.Reconcile(ctx, "ext_123")
	require.NoError(t, err)
	assert.Equal(t, "ext_123", first.ClerkID)
	assert.Equal(t, types.PendingEmail, first.Email)
	assert.Empty(t, first.FirstName)
	assert.Empty(t, first.LastName)
	assert.True(t, strings.HasPrefix(first.ImageURL, "https://ui-avatars.com/api/?name="), first.ImageURL)

	for i := 0; i < 3; i++ {
		again, err := svc.Reconcile(ctx, "ext_123")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	}
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.User{}))
}

func TestReconcileUsesProviderProfile(t *testing.T) {
	env := newTestEnv(t)
	profiles := &stubProfiles{profiles: map[string]*clerk.Profile{
		"user_ada": {ExternalID: "user_ada", FirstName: "Ada", LastName: "Ranger", Email: "ada@komodo.test", ImageURL: "https://img.clerk.test/ada.png"},
	}}
	svc := env.identity(profiles)

	u, err := svc.Reconcile(context.Background(), "user_ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Ranger", u.LastName)
	assert.Equal(t, "ada@komodo.test", u.Email)
	assert.Equal(t, "https://img.clerk.test/ada.png", u.ImageURL)

	_, err = svc.Reconcile(context.Background(), "user_ada")
	require.NoError(t, err)
	assert.Equal(t, 1, profiles.calls, "existing users must not hit the provider")
}

func TestReconcileIgnoresProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := env.identity(&stubProfiles{err: errors.New("provider down")})

	u, err := svc.Reconcile(context.Background(), "user_offline")
	require.NoError(t, err)
	assert.Equal(t, types.PendingEmail, u.Email)
	assert.Equal(t, UIAvatarsURL("", ""), u.ImageURL)
}

func TestReconcileUploadsInitialsAvatar(t *testing.T) {
	env := newTestEnv(t)
	store := newMemStore()
	avatars, err := NewAvatarService(env.log, store, "", "")
	require.NoError(t, err)
	profiles := &stubProfiles{profiles: map[string]*clerk.Profile{"user_k": {FirstName: "Komo", LastName: "Do"}}}
	svc := NewIdentityService(env.log, env.users, profiles, avatars)

	u, err := svc.Reconcile(context.Background(), "user_k")
	require.NoError(t, err)
	keys := store.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "avatars/"+u.ID.String()+"/"))
	assert.Equal(t, "https://cdn.test/"+keys[0], u.ImageURL)

	stored, err := env.users.GetByClerkID(withCtx(context.Background()), "user_k")
	require.NoError(t, err)
	assert.Equal(t, u.ImageURL, stored.ImageURL, "the stored row points at the uploaded avatar")
}

// racyUserRepo hides the row from the first lookup, as if another request
// inserted it between our read and our insert.
type racyUserRepo struct {
	repos.UserRepo
	hidden bool
}

func (r *racyUserRepo) GetByClerkID(dbc dbctx.Context, clerkID string) (*types.User, error) {
	if !r.hidden {
		r.hidden = true
		return nil, nil
	}
	return r.UserRepo.GetByClerkID(dbc, clerkID)
}

func TestReconcileRecoversFromConcurrentInsert(t *testing.T) {
	env := newTestEnv(t)
	winner := testutil.SeedUser(t, env.db, "user_race", "Won", "Race")
	svc := NewIdentityService(env.log, &racyUserRepo{UserRepo: env.users}, nil, nil)

	u, err := svc.Reconcile(context.Background(), "user_race")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, u.ID)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.User{}))
}

func TestReconcileLosingRaceStoresNoAvatar(t *testing.T) {
	env := newTestEnv(t)
	winner := testutil.SeedUser(t, env.db, "user_race", "Won", "Race")
	store := newMemStore()
	avatars, err := NewAvatarService(env.log, store, "", "")
	require.NoError(t, err)
	svc := NewIdentityService(env.log, &racyUserRepo{UserRepo: env.users}, nil, avatars)

	u, err := svc.Reconcile(context.Background(), "user_race")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, u.ID)
	assert.Empty(t, store.keys(), "the losing insert must not upload an avatar")
}

func TestReconcileKeepsPlaceholderWhenUploadFails(t *testing.T) {
	env := newTestEnv(t)
	store := newMemStore()
	store.failPut = errors.New("bucket unavailable")
	avatars, err := NewAvatarService(env.log, store, "", "")
	require.NoError(t, err)
	svc := NewIdentityService(env.log, env.users, nil, avatars)

	u, err := svc.Reconcile(context.Background(), "user_nobucket")
	require.NoError(t, err)
	assert.Equal(t, UIAvatarsURL("", ""), u.ImageURL)

	stored, err := env.users.GetByClerkID(withCtx(context.Background()), "user_nobucket")
	require.NoError(t, err)
	assert.Equal(t, u.ImageURL, stored.ImageURL)
}

func TestReconcileThenSummaryForNewUser(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedCourse(t, env.db, "Komodo Dragons", "k1", "k2", "k3")
	testutil.SeedCourse(t, env.db, "Orangutans", "o1", "o2")

	u, err := env.identity(nil).Reconcile(context.Background(), "ext_123")
	require.NoError(t, err)
	assert.Empty(t, u.FirstName)
	assert.Equal(t, types.PendingEmail, u.Email)

	summary, err := NewProgressService(env.db, env.log, env.courses, env.progress).GetSummary(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, summary.CompletedModules)
	assert.Equal(t, 5, summary.TotalModules)
	assert.False(t, summary.LastAccessed.IsZero())
}
