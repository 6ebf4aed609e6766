package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/komodohub/komodo-hub-backend/internal/domain"
	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/ctxutil"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

const (
	sessionCookie  = "__session"
	currentUserKey = "current_user"
)

var errUnauthorized = errors.New("Unauthorized")

type AuthMiddleware struct {
	log      *logger.Logger
	verifier clerk.Verifier
	identity services.IdentityService
}

func NewAuthMiddleware(log *logger.Logger, verifier clerk.Verifier, identity services.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{
		log:      log.With("middleware", "AuthMiddleware"),
		verifier: verifier,
		identity: identity,
	}
}

// RequireAuth verifies the session token and records the identity provider
// subject. It never touches the database.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" || am.verifier == nil {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}
		sess, err := am.verifier.Verify(c.Request.Context(), token)
		if err != nil || sess == nil || strings.TrimSpace(sess.ExternalID) == "" {
			am.log.Debug("Session token rejected", "error", err)
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}

		ctx := c.Request.Context()
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil {
			rd = &ctxutil.RequestData{}
			ctx = ctxutil.WithRequestData(ctx, rd)
			c.Request = c.Request.WithContext(ctx)
		}
		rd.ExternalID = sess.ExternalID
		rd.SessionID = sess.SessionID
		c.Next()
	}
}

// RequireUser resolves the local user for the verified subject, provisioning
// it on first sight. Must run after RequireAuth.
func (am *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.ExternalID == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}
		u, err := am.identity.Reconcile(c.Request.Context(), rd.ExternalID)
		if err != nil {
			am.log.Error("Identity reconciliation failed", "clerk_id", rd.ExternalID, "error", err)
			response.RespondServiceError(c, err, "user_resolve_failed")
			c.Abort()
			return
		}
		rd.UserID = u.ID
		c.Set(currentUserKey, u)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser, or nil.
func CurrentUser(c *gin.Context) *types.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*types.User); ok {
			return u
		}
	}
	return nil
}

// SetCurrentUser is used by tests that mount handlers without the middleware.
func SetCurrentUser(c *gin.Context, u *types.User) {
	c.Set(currentUserKey, u)
}

// ExternalID returns the verified identity provider subject, or "".
func ExternalID(c *gin.Context) string {
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		return rd.ExternalID
	}
	return ""
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	// EventSource cannot set headers.
	if qToken := strings.TrimSpace(c.Query("token")); qToken != "" {
		return qToken
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
