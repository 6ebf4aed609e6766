package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/ctxutil"
)

func TestMetricsByRouteAndCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New()
	r := gin.New()
	r.Use(AttachRequestContext())
	r.Use(Metrics(m))
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusTooManyRequests) })
	r.GET("/session", func(c *gin.Context) {
		ctxutil.GetRequestData(c.Request.Context()).ExternalID = "user_s"
		c.Status(http.StatusOK)
	})
	r.GET("/me", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		rd.ExternalID = "user_m"
		rd.UserID = uuid.New()
		c.Status(http.StatusOK)
	})
	r.GET("/api/sse/stream", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/open", "/limited", "/session", "/me", "/api/sse/stream", "/missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()
	for _, want := range []string{
		`komodo_api_requests_by_caller_total{route="/open",caller="anonymous"} 1.000000`,
		`komodo_api_requests_by_caller_total{route="/session",caller="session"} 1.000000`,
		`komodo_api_requests_by_caller_total{route="/me",caller="user"} 1.000000`,
		`komodo_api_requests_by_caller_total{route="/api/sse/stream",caller="anonymous"} 1.000000`,
		`komodo_api_rate_limited_total{route="/limited"} 1.000000`,
		`komodo_api_requests_total{method="GET",route="/limited",status="429"} 1.000000`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, `komodo_api_requests_total{method="GET",route="/api/sse/stream"`, "streams stay out of the latency series")
	assert.Contains(t, out, "komodo_api_inflight_requests 0")
}

func TestMetricsNilCollector(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
