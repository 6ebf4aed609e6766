package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/komodohub/komodo-hub-backend/internal/http/response"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

const rateLimitPrefix = "komodo:limiter"

// RateLimitStore builds the counter store shared by every limited route:
// Redis when a client is given, process memory otherwise.
func RateLimitStore(client *goredis.Client) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix}), nil
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
	if err != nil {
		return nil, fmt.Errorf("redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit limits requests per client IP using a rate such as "60-M".
// An empty rate disables limiting.
func RateLimit(log *logger.Logger, store limiter.Store, name, formatted string) (gin.HandlerFunc, error) {
	formatted = strings.TrimSpace(formatted)
	if formatted == "" || store == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", name, err)
	}
	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return name + ":" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			log.Warn("Rate limit reached", "limiter", name, "path", c.FullPath())
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", fmt.Errorf("Too many requests"))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			log.Error("Rate limiter store failed", "limiter", name, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "rate_limit_unavailable", err)
		}),
	), nil
}
