package middleware

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/komodohub/komodo-hub-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	attrUserID    = "komodo.user_id"
	attrSessionID = "komodo.session_id"
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// AttachTraceContext tags the request with a trace id and a request id and
// echoes both back. An active span wins over a client-supplied trace id.
// Once the handlers have run, the resolved caller is attached to the span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		td := &ctxutil.TraceData{
			TraceID:   resolveTraceID(span.SpanContext(), c.GetHeader(headerTraceID)),
			RequestID: resolveRequestID(c.GetHeader(headerRequestID)),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)

		c.Next()

		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || !span.IsRecording() {
			return
		}
		attrs := make([]attribute.KeyValue, 0, 2)
		if rd.UserID != uuid.Nil {
			attrs = append(attrs, attribute.String(attrUserID, rd.UserID.String()))
		}
		if rd.SessionID != "" {
			attrs = append(attrs, attribute.String(attrSessionID, rd.SessionID))
		}
		span.SetAttributes(attrs...)
	}
}

func resolveTraceID(sc trace.SpanContext, header string) string {
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	header = strings.ToLower(strings.TrimSpace(header))
	if len(header) == 32 {
		if _, err := hex.DecodeString(header); err == nil {
			return header
		}
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// resolveRequestID keeps a well-formed caller id so logs line up with the
// client, and mints an xid otherwise.
func resolveRequestID(header string) string {
	header = strings.TrimSpace(header)
	if requestIDPattern.MatchString(header) {
		return header
	}
	return xid.New().String()
}
