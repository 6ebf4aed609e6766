package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/ctxutil"
)

const (
	CallerUser      = "user"
	CallerSession   = "session"
	CallerAnonymous = "anonymous"
)

// Metrics records requests per matched route and caller kind. SSE streams stay
// out of the latency histogram and the in-flight gauge; the hub tracks them.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		stream := isEventStream(c)
		start := time.Now()
		if !stream {
			m.ApiInflightInc()
			defer m.ApiInflightDec()
		}

		c.Next()

		status := c.Writer.Status()
		m.IncAPICaller(route, callerKind(c))
		if status == http.StatusTooManyRequests {
			m.IncRateLimited(route)
		}
		if !stream {
			m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), time.Since(start))
		}
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasSuffix(c.FullPath(), "/sse/stream") ||
		strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func callerKind(c *gin.Context) string {
	rd := ctxutil.GetRequestData(c.Request.Context())
	switch {
	case rd == nil:
		return CallerAnonymous
	case rd.UserID != uuid.Nil:
		return CallerUser
	case rd.ExternalID != "":
		return CallerSession
	default:
		return CallerAnonymous
	}
}
