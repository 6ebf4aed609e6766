package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/komodohub/komodo-hub-backend/internal/http/handlers"
	httpMW "github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingEnabled bool
	ServiceName    string
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware
	WebhookLimiter gin.HandlerFunc
	UploadLimiter  gin.HandlerFunc

	HealthHandler   *httpH.HealthHandler
	WebhookHandler  *httpH.WebhookHandler
	CourseHandler   *httpH.CourseHandler
	ProgressHandler *httpH.ProgressHandler
	PostHandler     *httpH.PostHandler
	MessageHandler  *httpH.MessageHandler
	UserHandler     *httpH.UserHandler
	ProfileHandler  *httpH.ProfileHandler
	UploadHandler   *httpH.UploadHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func passThrough(c *gin.Context) { c.Next() }

func orPassThrough(h gin.HandlerFunc) gin.HandlerFunc {
	if h == nil {
		return passThrough
	}
	return h
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "komodo-hub"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Public
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.ListCourses)
			api.GET("/courses/:courseId", cfg.CourseHandler.GetCourse)
		}
		if cfg.WebhookHandler != nil {
			limit := orPassThrough(cfg.WebhookLimiter)
			api.POST("/webhook/clerk", limit, cfg.WebhookHandler.ClerkWebhook)
			api.POST("/webhooks/clerk", limit, cfg.WebhookHandler.ClerkWebhook)
			api.POST("/dev-webhook/clerk", limit, cfg.WebhookHandler.DevClerkWebhook)
		}
	}

	requireAuth, requireUser := gin.HandlerFunc(passThrough), gin.HandlerFunc(passThrough)
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
		requireUser = cfg.AuthMiddleware.RequireUser()
	}

	// Verified session, no local user needed up front.
	authed := api.Group("/", requireAuth)
	{
		if cfg.ProfileHandler != nil {
			authed.GET("/profile", cfg.ProfileHandler.GetProfile)
			authed.PUT("/profile", cfg.ProfileHandler.UpdateProfile)
			authed.DELETE("/profile", cfg.ProfileHandler.DeleteProfile)
			authed.DELETE("/profile/delete", cfg.ProfileHandler.DeleteProfile)
			authed.POST("/profile/avatar", cfg.ProfileHandler.UploadAvatar)
		}
		if cfg.PostHandler != nil {
			authed.GET("/posts", cfg.PostHandler.ListPosts)
		}
		if cfg.UserHandler != nil {
			authed.GET("/users/:clerkId", cfg.UserHandler.GetUser)
		}
		if cfg.UploadHandler != nil {
			authed.POST("/upload", orPassThrough(cfg.UploadLimiter), cfg.UploadHandler.Upload)
		}
	}

	// Verified session resolved to a local user.
	users := authed.Group("/", requireUser)
	{
		if cfg.CourseHandler != nil {
			users.POST("/courses", cfg.CourseHandler.CreateCourse)
			users.PUT("/courses/:courseId", cfg.CourseHandler.UpdateCourse)
			users.DELETE("/courses/:courseId", cfg.CourseHandler.DeleteCourse)
		}
		if cfg.ProgressHandler != nil {
			users.GET("/user-progress", cfg.ProgressHandler.GetProgress)
			users.POST("/user-progress", cfg.ProgressHandler.CompleteModule)
			users.POST("/user-progress/reset", cfg.ProgressHandler.ResetProgress)
		}
		if cfg.PostHandler != nil {
			users.POST("/posts", cfg.PostHandler.CreatePost)
			users.DELETE("/posts", cfg.PostHandler.DeletePost)
			users.DELETE("/posts/:id", cfg.PostHandler.DeletePost)
		}
		if cfg.MessageHandler != nil {
			users.GET("/messages", cfg.MessageHandler.ListConversation)
			users.POST("/messages", cfg.MessageHandler.SendMessage)
			users.DELETE("/messages/:messageId", cfg.MessageHandler.DeleteMessage)
		}
		if cfg.UserHandler != nil {
			users.GET("/users", cfg.UserHandler.ListUsers)
		}
		if cfg.RealtimeHandler != nil {
			users.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	return r
}
