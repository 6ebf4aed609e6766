package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/ctxutil"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

// echoVerifier accepts any token starting with "ok:" and uses the rest as the subject.
type echoVerifier struct{}

func (echoVerifier) Verify(ctx context.Context, token string) (*clerk.Session, error) {
	if !strings.HasPrefix(token, "ok:") {
		return nil, clerk.ErrInvalidToken
	}
	return &clerk.Session{ExternalID: strings.TrimPrefix(token, "ok:"), SessionID: "sess_1"}, nil
}

type fakeIdentity struct {
	user  *types.User
	err   error
	calls int
}

func (f *fakeIdentity) Reconcile(ctx context.Context, externalID string) (*types.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	u.ClerkID = externalID
	return &u, nil
}

func newAuthEngine(identity *fakeIdentity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), echoVerifier{}, identity)
	r := gin.New()
	r.Use(AttachRequestContext())
	r.GET("/who", am.RequireAuth(), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, ExternalID(c)+"|"+rd.SessionID)
	})
	r.GET("/me", am.RequireAuth(), am.RequireUser(), func(c *gin.Context) {
		u := CurrentUser(c)
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, u.ClerkID+"|"+rd.UserID.String())
	})
	return r
}

func TestRequireAuthTokenSources(t *testing.T) {
	r := newAuthEngine(&fakeIdentity{user: &types.User{ID: uuid.New()}})

	cases := []struct {
		name   string
		header string
		query  string
		cookie string
		want   string
	}{
		{name: "bearer header", header: "Bearer ok:user_h", want: "user_h|sess_1"},
		{name: "lowercase scheme", header: "bearer ok:user_l", want: "user_l|sess_1"},
		{name: "query token", query: "ok:user_q", want: "user_q|sess_1"},
		{name: "session cookie", cookie: "ok:user_c", want: "user_c|sess_1"},
		{name: "header wins over query and cookie", header: "Bearer ok:first", query: "ok:second", cookie: "ok:third", want: "first|sess_1"},
		{name: "query wins over cookie", query: "ok:second", cookie: "ok:third", want: "second|sess_1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target := "/who"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "__session", Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tc.want, rec.Body.String())
		})
	}
}

func TestRequireAuthRejects(t *testing.T) {
	identity := &fakeIdentity{user: &types.User{ID: uuid.New()}}
	r := newAuthEngine(identity)

	for name, header := range map[string]string{
		"missing":      "",
		"forged":       "Bearer forged",
		"empty bearer": "Bearer ",
		"basic scheme": "Basic ok:user",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
		})
	}
	assert.Zero(t, identity.calls, "rejected requests never reach reconciliation")
}

func TestRequireUserStoresLocalUser(t *testing.T) {
	id := uuid.New()
	r := newAuthEngine(&fakeIdentity{user: &types.User{ID: id}})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer ok:user_me")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_me|"+id.String(), rec.Body.String())
}

func TestRequireUserPropagatesServiceErrors(t *testing.T) {
	r := newAuthEngine(&fakeIdentity{err: apierr.Internal("user_lookup_failed", errors.New("db down"))})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer ok:user_me")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_lookup_failed")
}
