package main

import (
	"context"
	"fmt"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/teamtasks/internal/config"
	"github.com/fastygo/teamtasks/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/teamtasks/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/teamtasks/internal/infrastructure/redis"
	"github.com/fastygo/teamtasks/internal/services/lifecycle"
	"github.com/fastygo/teamtasks/repository"
	"github.com/fastygo/teamtasks/repository/memory"
	"github.com/fastygo/teamtasks/repository/postgres"
	redisRepo "github.com/fastygo/teamtasks/repository/redis"
)

// repositories bundles one storage backend.
type repositories struct {
	users    repository.UserRepository
	teams    repository.TeamRepository
	tasks    repository.TaskRepository
	activity repository.ActivityRepository
	times    repository.TimeRepository
	sessions repository.SessionRepository
	tx       repository.Transactor
	targets  monitor.Targets
}

func openStorage(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (*repositories, error) {
	repos := &repositories{targets: monitor.Targets{Storage: cfg.Storage}}

	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.New()
		repos.users = store.Users()
		repos.teams = store.Teams()
		repos.tasks = store.Tasks()
		repos.activity = store.Activity()
		repos.times = store.Time()
		repos.sessions = store.Sessions()
		repos.tx = store
		zapLogger.Warn("using in-memory storage, data is lost on restart")

	case config.StoragePostgres:
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		repos.users = postgres.NewUserRepository(pool)
		repos.teams = postgres.NewTeamRepository(pool)
		repos.tasks = postgres.NewTaskRepository(pool)
		repos.activity = postgres.NewActivityRepository(pool)
		repos.times = postgres.NewTimeRepository(pool)
		repos.tx = postgres.NewTransactor(pool)
		repos.targets.Database = monitor.PingFunc(pool.Ping)
		repos.sessions = memory.New().Sessions()

	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	if cfg.Redis.Enabled {
		client, err := openRedis(cfg, manager, zapLogger)
		if err != nil {
			return nil, err
		}
		repos.sessions = redisRepo.NewSessionRepository(client, cfg.Redis.Prefix, cfg.JWT.SessionTTL)
		repos.targets.Redis = monitor.PingFunc(redisInfra.Pinger(client))
	}
	return repos, nil
}

func openRedis(cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (*goRedis.Client, error) {
	client, err := redisInfra.NewClient(cfg.Redis, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	manager.Register("redis", func(context.Context) error {
		return client.Close()
	})
	return client, nil
}
