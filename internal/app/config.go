package app

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/komodohub/komodo-hub-backend/internal/http/middleware"
	"github.com/komodohub/komodo-hub-backend/internal/platform/envutil"
	"github.com/komodohub/komodo-hub-backend/internal/platform/gcp"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime/bus"
)

type Config struct {
	Port            string
	Environment     string
	Version         string
	ShutdownTimeout time.Duration

	ClerkIssuer            string
	ClerkJWKSURL           string
	ClerkAuthorizedParties []string
	ClerkSecretKey         string
	ClerkAPIURL            string
	ClerkWebhookSecret     string

	CORSOrigins []string

	Redis bus.RedisConfig

	Storage      gcp.StorageConfig
	AvatarFont   string
	AvatarColors string

	WebhookRateLimit string
	UploadRateLimit  string

	MetricsAddr     string
	DBStatsInterval time.Duration
	TracingEnabled  bool
}

// loadDotEnv reads .env when present. A missing file is normal in deployed
// environments.
func loadDotEnv(log *logger.Logger) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not read .env", "error", err)
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	loadDotEnv(log)

	storage, err := gcp.ResolveStorageConfigFromEnv()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:            envutil.String("PORT", "8080"),
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", "dev"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		ClerkIssuer:            envutil.String("CLERK_ISSUER", ""),
		ClerkJWKSURL:           envutil.String("CLERK_JWKS_URL", ""),
		ClerkAuthorizedParties: envutil.CSV("CLERK_AUTHORIZED_PARTIES", nil),
		ClerkSecretKey:         envutil.String("CLERK_SECRET_KEY", ""),
		ClerkAPIURL:            envutil.String("CLERK_API_URL", ""),
		ClerkWebhookSecret:     envutil.String("CLERK_WEBHOOK_SECRET", ""),

		CORSOrigins: envutil.CSV("CORS_ALLOWED_ORIGINS", middleware.DefaultCORSOrigins),

		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", bus.DefaultChannel),
		},

		Storage:      storage,
		AvatarFont:   envutil.String("AVATAR_FONT", ""),
		AvatarColors: envutil.String("AVATAR_COLORS_JSON_PATH", ""),

		WebhookRateLimit: envutil.String("WEBHOOK_RATE_LIMIT", "120-M"),
		UploadRateLimit:  envutil.String("UPLOAD_RATE_LIMIT", "30-M"),

		MetricsAddr:     envutil.String("METRICS_ADDR", ":9090"),
		DBStatsInterval: envutil.Duration("DB_STATS_INTERVAL", 15*time.Second),
		TracingEnabled:  envutil.Bool("OTEL_ENABLED", false),
	}

	if cfg.ClerkIssuer == "" {
		return Config{}, errors.New("CLERK_ISSUER must be set")
	}
	if cfg.ClerkWebhookSecret == "" {
		log.Warn("CLERK_WEBHOOK_SECRET is empty; webhook deliveries will be refused")
	}
	if !cfg.Storage.Enabled() {
		log.Warn("MEDIA_GCS_BUCKET_NAME is empty; uploads are disabled")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Info("REDIS_ADDR is empty; realtime events stay on this instance")
	}
	return cfg, nil
}

func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}
