package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/komodohub/komodo-hub-backend/internal/platform/ctxutil"
)

// AttachRequestContext gives every request an empty RequestData that the auth
// middleware fills in.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
