package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/komodohub/komodo-hub-backend/internal/platform/envutil"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	MaxIdleTime     time.Duration
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// PoolConfigFromEnv mirrors the pool the web app ran with: 10 connections,
// 20s idle, 30m lifetime, 10s connect timeout.
func PoolConfigFromEnv() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    envutil.Int("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    envutil.Int("DB_MAX_IDLE_CONNS", 5),
		MaxIdleTime:     envutil.Duration("DB_MAX_IDLE_TIME", 20*time.Second),
		ConnMaxLifetime: envutil.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnectTimeout:  envutil.Duration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}
}

type PostgresService struct {
	db   *gorm.DB
	log  *logger.Logger
	pool PoolConfig
}

func NewPostgresService(logg *logger.Logger, pool PoolConfig) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	dsn := resolveDSN(pool)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		Logger:                                   newGormLogger(logg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(pool.MaxIdleTime)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

	svc := &PostgresService{db: db, log: serviceLog, pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), pool.ConnectTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("postgres readiness check failed: %w", err)
	}
	serviceLog.Info("Postgres connected", "max_open_conns", pool.MaxOpenConns, "max_idle_time", pool.MaxIdleTime.String())
	return svc, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// Ping runs SELECT 1 so readiness reflects a working round trip, not just an open socket.
func (s *PostgresService) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	var one int
	return db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

func resolveDSN(pool PoolConfig) string {
	if url := envutil.String("DATABASE_URL", ""); url != "" {
		return url
	}
	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "komodo_hub")
	sslmode := envutil.String("POSTGRES_SSLMODE", "disable")
	timeout := int(pool.ConnectTimeout.Seconds())
	if timeout <= 0 {
		timeout = 10
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&connect_timeout=%d",
		user, password, host, port, name, sslmode, timeout,
	)
}

type zapWriter struct {
	log *logger.Logger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.SugaredLogger.Warnf(strings.TrimSpace(format), args...)
}

func newGormLogger(log *logger.Logger) gormLogger.Interface {
	return gormLogger.New(
		zapWriter{log: log.With("component", "gorm")},
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
