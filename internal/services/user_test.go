package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
)

func TestUserDirectory(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.log, env.users)
	testutil.SeedUser(t, env.db, "user_z", "Zed", "")
	ada := testutil.SeedUser(t, env.db, "user_a", "Ada", "Ranger")

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada", list[0].FirstName)
	assert.Equal(t, ada.ID.String(), list[0].ID)
	assert.Equal(t, "user_a", list[0].ClerkID)

	got, err := svc.GetByExternalID(context.Background(), "user_z")
	require.NoError(t, err)
	assert.Equal(t, "Zed", got.FirstName)

	_, err = svc.GetByExternalID(context.Background(), "user_missing")
	assert.Equal(t, "user_not_found", codeOf(err))
}
