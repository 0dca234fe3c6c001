package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/config"
	"cohort-portal-service/internal/docstore"
	"cohort-portal-service/internal/infra/memory"
	pgstore "cohort-portal-service/internal/infra/postgres"
	redisstore "cohort-portal-service/internal/infra/redis"
	"cohort-portal-service/internal/logging"
	transport "cohort-portal-service/internal/transport/http"
)

// loadConfig reads path when it exists and falls back to the environment.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return config.Load(path)
}

// backend is the document store selected by config plus the clients behind it.
type backend struct {
	store docstore.Store
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (b *backend) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

// openBackend connects the configured store. A configured redis address is
// also used for the quiz cache when the documents live elsewhere.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{}
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			b.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
		b.store = pgstore.NewStore(pool)
	case config.DriverRedis:
		b.store = redisstore.NewStore(b.redis)
	default:
		b.store = memory.NewStore()
	}
	logger.Info("document store ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("postgres", logging.RedactURL(cfg.Postgres.URL)),
		zap.String("redis", cfg.Redis.Addr),
	)
	return b, nil
}

// quizCache prefers redis so every instance shares cached quizzes.
func (b *backend) quizCache(cfg config.Config) app.QuizCache {
	ttl := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	loader := app.NewQuizLoader(b.store)
	if b.redis != nil {
		return redisstore.NewQuizCache(b.redis, loader, ttl)
	}
	return memory.NewQuizCache(loader, ttl)
}

func (b *backend) services(cfg config.Config, logger *zap.Logger) transport.Services {
	profiles := app.NewProfileService(b.store, logger)
	groups := app.NewGroupService(b.store, logger)
	proposals := app.NewProposalService(b.store, logger)
	return transport.Services{
		Profiles:  profiles,
		Groups:    groups,
		Proposals: proposals,
		Portal:    app.NewPortal(profiles, groups, proposals),
		Quizzes:   app.NewQuizService(b.store, b.quizCache(cfg), logger),
		Lessons:   app.NewLessonService(b.store, logger),
		Reports:   app.NewReportService(proposals),
	}
}

// setup loads config, builds the logger and opens the backend.
func setup(ctx context.Context, configPath string) (config.Config, *zap.Logger, *backend, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return cfg, nil, nil, err
	}
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return cfg, nil, nil, err
	}
	return cfg, logger, b, nil
}
