package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/data/repos/testutil"
	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
)

var webhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("komodo-service-secret"))

func (e *testEnv) webhooks(secret string) WebhookService {
	return NewWebhookService(e.db, e.log, secret, e.users, e.posts, e.messages, e.progress)
}

func signedHeaders(t *testing.T, id string, body []byte) clerk.WebhookHeaders {
	t.Helper()
	now := time.Now()
	sig, err := clerk.SignWebhook(webhookSecret, id, now, body)
	require.NoError(t, err)
	return clerk.WebhookHeaders{ID: id, Timestamp: strconv.FormatInt(now.Unix(), 10), Signature: sig}
}

func userEvent(eventType, id, email, first, last string) []byte {
	return []byte(fmt.Sprintf(`{"type":%q,"object":"event","data":{"id":%q,"first_name":%q,"last_name":%q,"image_url":"https://img.clerk.test/%s.png","primary_email_address_id":"idn_1","email_addresses":[{"id":"idn_0","email_address":"old@komodo.test"},{"id":"idn_1","email_address":%q}]}}`,
		eventType, id, first, last, id, email))
}

func TestWebhookRejectsBeforeMutation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.webhooks(webhookSecret)
	ctx := context.Background()
	body := userEvent(EventUserCreated, "user_w", "w@komodo.test", "Wil", "Low")

	_, err := svc.HandleClerkEvent(ctx, clerk.WebhookHeaders{ID: "msg_1"}, body)
	assert.Equal(t, "missing_svix_headers", codeOf(err))

	h := signedHeaders(t, "msg_1", body)
	h.Signature = "v1," + base64.StdEncoding.EncodeToString([]byte("forged"))
	_, err = svc.HandleClerkEvent(ctx, h, body)
	assert.Equal(t, "invalid_signature", codeOf(err))
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	tampered := userEvent(EventUserCreated, "user_evil", "e@komodo.test", "E", "Vil")
	_, err = svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_2", body), tampered)
	assert.Equal(t, "invalid_signature", codeOf(err))

	_, err = env.webhooks("").HandleClerkEvent(ctx, signedHeaders(t, "msg_3", body), body)
	assert.Equal(t, "webhook_secret_missing", codeOf(err))
	assert.Equal(t, http.StatusInternalServerError, apierr.StatusOf(err))

	assert.Zero(t, testutil.Count(t, env.db, &types.User{}))
}

func TestWebhookUserLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := env.webhooks(webhookSecret)
	ctx := context.Background()

	created := userEvent(EventUserCreated, "user_w", "w@komodo.test", "Wil", "Low")
	typ, err := svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_1", created), created)
	require.NoError(t, err)
	assert.Equal(t, EventUserCreated, typ)

	u, err := env.users.GetByClerkID(withCtx(ctx), "user_w")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "w@komodo.test", u.Email, "primary address wins over the first entry")
	assert.Equal(t, "Wil", u.FirstName)

	// Redelivery is idempotent.
	_, err = svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_1", created), created)
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.User{}))

	updated := userEvent(EventUserUpdated, "user_w", "new@komodo.test", "Willa", "")
	_, err = svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_2", updated), updated)
	require.NoError(t, err)
	u, err = env.users.GetByClerkID(withCtx(ctx), "user_w")
	require.NoError(t, err)
	assert.Equal(t, "new@komodo.test", u.Email)
	assert.Equal(t, "Willa", u.FirstName)
	assert.Empty(t, u.LastName)

	other := testutil.SeedUser(t, env.db, "user_other", "O", "")
	course := testutil.SeedCourse(t, env.db, "Komodo", "k1")
	testutil.SeedPost(t, env.db, u.ID, "hello", time.Now().UTC())
	testutil.SeedMessage(t, env.db, u.ID, other.ID, "hi", time.Now().UTC())
	testutil.SeedMessage(t, env.db, other.ID, u.ID, "hey", time.Now().UTC())
	testutil.SeedProgress(t, env.db, u.ID, course.ID, "k1")
	testutil.SeedProgress(t, env.db, other.ID, course.ID, "k1")

	deleted := []byte(`{"type":"user.deleted","data":{"id":"user_w","deleted":true}}`)
	_, err = svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_3", deleted), deleted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.User{}))
	assert.Zero(t, testutil.Count(t, env.db, &types.Post{}))
	assert.Zero(t, testutil.Count(t, env.db, &types.Message{}))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &types.UserProgress{}))

	// Deleting again is a no-op.
	_, err = svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_4", deleted), deleted)
	require.NoError(t, err)
}

func TestWebhookCreatedAfterLazyProvisioning(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lazy, err := env.identity(nil).Reconcile(ctx, "user_lazy")
	require.NoError(t, err)

	body := userEvent(EventUserCreated, "user_lazy", "lazy@komodo.test", "La", "Zy")
	_, err = env.webhooks(webhookSecret).HandleClerkEvent(ctx, signedHeaders(t, "msg_1", body), body)
	require.NoError(t, err)

	u, err := env.users.GetByClerkID(withCtx(ctx), "user_lazy")
	require.NoError(t, err)
	assert.Equal(t, lazy.ID, u.ID)
	assert.Equal(t, "lazy@komodo.test", u.Email)
	assert.Equal(t, "La", u.FirstName)
}

func TestWebhookValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := env.webhooks(webhookSecret)

	cases := []struct {
		name string
		body string
		code string
	}{
		{name: "no email", body: `{"type":"user.created","data":{"id":"user_x","email_addresses":[]}}`, code: "missing_email"},
		{name: "session event", body: `{"type":"session.created","data":{"id":"sess_1"}}`, code: "unsupported_event"},
		{name: "other user event", body: `{"type":"user.banned","data":{"id":"user_x"}}`, code: "unsupported_event"},
		{name: "no user id", body: `{"type":"user.updated","data":{}}`, code: "invalid_payload"},
		{name: "not json", body: `not json`, code: "invalid_payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := []byte(tc.body)
			_, err := svc.HandleClerkEvent(context.Background(), signedHeaders(t, "msg_"+tc.name, body), body)
			require.Error(t, err)
			assert.Equal(t, tc.code, codeOf(err))
			assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
		})
	}
	assert.Zero(t, testutil.Count(t, env.db, &types.User{}))
}

func TestWebhookUpdatedOverwritesEveryField(t *testing.T) {
	env := newTestEnv(t)
	svc := env.webhooks(webhookSecret)
	ctx := context.Background()

	created := userEvent(EventUserCreated, "user_i", "i@komodo.test", "Iri", "Na")
	_, err := svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_1", created), created)
	require.NoError(t, err)

	updated := []byte(`{"type":"user.updated","data":{"id":"user_i","first_name":"","last_name":"","image_url":"","email_addresses":[]}}`)
	_, err = svc.HandleClerkEvent(ctx, signedHeaders(t, "msg_2", updated), updated)
	require.NoError(t, err)

	u, err := env.users.GetByClerkID(withCtx(ctx), "user_i")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.ImageURL, "stored image is not kept over an empty payload")
	assert.Empty(t, u.FirstName)
	assert.Empty(t, u.LastName)
	assert.Equal(t, types.PendingEmail, u.Email)
}

func TestSimulateEvent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.webhooks("")
	ctx := context.Background()

	action, err := svc.SimulateEvent(ctx, EventUserCreated, []byte(`{"id":"user_dev","first_name":"Dev","last_name":"Eloper"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, action)

	u, err := env.users.GetByClerkID(withCtx(ctx), "user_dev")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, devFallbackEmail, u.Email)
	assert.Equal(t, UIAvatarsURL("Dev", "Eloper"), u.ImageURL)

	action, err = svc.SimulateEvent(ctx, EventUserUpdated, []byte(`{"id":"user_dev","first_name":"Devi","email_addresses":[{"id":"e1","email_address":"devi@komodo.test"}],"image_url":"https://img.clerk.test/devi.png"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, action)
	u, err = env.users.GetByClerkID(withCtx(ctx), "user_dev")
	require.NoError(t, err)
	assert.Equal(t, "devi@komodo.test", u.Email)
	assert.Equal(t, "Devi", u.FirstName)
	assert.Equal(t, "https://img.clerk.test/devi.png", u.ImageURL)

	testutil.SeedPost(t, env.db, u.ID, "dev post", time.Now().UTC())
	action, err = svc.SimulateEvent(ctx, EventUserDeleted, []byte(`{"id":"user_dev"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionDeleted, action)
	assert.Zero(t, testutil.Count(t, env.db, &types.User{}))
	assert.Zero(t, testutil.Count(t, env.db, &types.Post{}))

	_, err = svc.SimulateEvent(ctx, "session.created", []byte(`{"id":"sess_1"}`))
	assert.ErrorIs(t, err, ErrUnsupportedSimulation)

	_, err = svc.SimulateEvent(ctx, "", []byte(`{"id":"user_dev"}`))
	assert.Equal(t, "missing_fields", codeOf(err))
	_, err = svc.SimulateEvent(ctx, EventUserCreated, nil)
	assert.Equal(t, "missing_fields", codeOf(err))
	_, err = svc.SimulateEvent(ctx, EventUserUpdated, []byte(`{}`))
	assert.Equal(t, "missing_user_id", codeOf(err))
}
