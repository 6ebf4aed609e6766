package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	httpMW "github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime/bus"
)

type Middleware struct {
	Auth           *httpMW.AuthMiddleware
	WebhookLimiter gin.HandlerFunc
	UploadLimiter  gin.HandlerFunc
}

// wireMiddleware shares limiter counters through Redis when the bus is up so
// quotas hold across instances.
func wireMiddleware(log *logger.Logger, cfg Config, verifier clerk.Verifier, services Services, b bus.Bus) (Middleware, error) {
	log.Info("Wiring middleware...")

	store, err := httpMW.RateLimitStore(bus.Client(b))
	if err != nil {
		return Middleware{}, fmt.Errorf("init rate limit store: %w", err)
	}
	webhookLimiter, err := newLimiter(log, store, "webhook", cfg.WebhookRateLimit)
	if err != nil {
		return Middleware{}, err
	}
	uploadLimiter, err := newLimiter(log, store, "upload", cfg.UploadRateLimit)
	if err != nil {
		return Middleware{}, err
	}

	return Middleware{
		Auth:           httpMW.NewAuthMiddleware(log, verifier, services.Identity),
		WebhookLimiter: webhookLimiter,
		UploadLimiter:  uploadLimiter,
	}, nil
}

func newLimiter(log *logger.Logger, store limiter.Store, name, rate string) (gin.HandlerFunc, error) {
	h, err := httpMW.RateLimit(log, store, name, rate)
	if err != nil {
		return nil, fmt.Errorf("init %s rate limit: %w", name, err)
	}
	return h, nil
}
