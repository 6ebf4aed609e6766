package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/data/db"
	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/clerk"
	"github.com/komodohub/komodo-hub-backend/internal/platform/gcp"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
	"github.com/komodohub/komodo-hub-backend/internal/realtime"
	"github.com/komodohub/komodo-hub-backend/internal/realtime/bus"
	"github.com/komodohub/komodo-hub-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub

	pg           *db.PostgresService
	bus          bus.Bus
	bucket       gcp.BucketService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	log, cfg := a.Log, a.Cfg

	a.otelShutdown = observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "komodo-hub",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	if observability.Enabled() {
		observability.Init(log)
	}

	pg, err := db.NewPostgresService(log, db.PoolConfigFromEnv())
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	a.pg = pg
	if err := pg.AutoMigrateAll(); err != nil {
		return fmt.Errorf("postgres automigrate: %w", err)
	}
	a.DB = pg.DB()

	a.SSEHub = realtime.NewSSEHub(log)
	var emitter realtime.Emitter = &realtime.HubEmitter{Hub: a.SSEHub}
	if cfg.Redis.Addr != "" {
		b, err := bus.NewRedisBus(log, cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis bus: %w", err)
		}
		a.bus = b
		emitter = &realtime.BusEmitter{Bus: b, Log: log}
	}

	// store stays a nil interface when storage is off
	var store services.MediaStore
	if cfg.Storage.Enabled() {
		bucket, err := gcp.NewBucketService(log, cfg.Storage)
		if err != nil {
			return fmt.Errorf("init bucket service: %w", err)
		}
		a.bucket = bucket
		store = bucket
	}

	verifier, err := clerk.NewVerifier(clerk.VerifierConfig{
		Issuer:            cfg.ClerkIssuer,
		JWKSURL:           cfg.ClerkJWKSURL,
		AuthorizedParties: cfg.ClerkAuthorizedParties,
		Leeway:            5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init clerk verifier: %w", err)
	}
	profiles := clerk.NewClient(cfg.ClerkAPIURL, cfg.ClerkSecretKey, nil)

	a.Repos = wireRepos(a.DB, log)
	a.Services, err = wireServices(a.DB, log, cfg, a.Repos, profiles, store, emitter)
	if err != nil {
		return err
	}
	handlerset := wireHandlers(a.DB, log, cfg, a.Services, a.SSEHub)
	middleware, err := wireMiddleware(log, cfg, verifier, a.Services, a.bus)
	if err != nil {
		return err
	}
	a.Router = wireRouter(log, cfg, handlerset, middleware)
	return nil
}

// Start launches the background loops: the bus forwarder feeding the local
// hub, the metrics listener and the pool stats collector.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.bus != nil {
		if err := a.bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start sse forwarder: %w", err)
		}
	}
	if m := observability.Current(); m != nil {
		m.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		m.StartPostgresCollector(ctx, a.Log, a.DB, a.Cfg.DBStatsInterval)
	}
	return nil
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &http.Server{
		Addr:              ":" + a.Cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	a.Log.Info("Shutting down", "timeout", a.Cfg.ShutdownTimeout.String())
	ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.bucket != nil {
		_ = a.bucket.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
