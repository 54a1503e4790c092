package main

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/teamtasks/api/handler"
	"github.com/fastygo/teamtasks/internal/infrastructure/buffer"
	"github.com/fastygo/teamtasks/internal/infrastructure/monitor"
	"github.com/fastygo/teamtasks/internal/middleware"
	"github.com/fastygo/teamtasks/internal/router"
	"github.com/fastygo/teamtasks/internal/services"
	"github.com/fastygo/teamtasks/internal/services/lifecycle"
	"github.com/fastygo/teamtasks/pkg/clock"
	"github.com/fastygo/teamtasks/pkg/httpcontext"
	"github.com/fastygo/teamtasks/usecase"
	activityUC "github.com/fastygo/teamtasks/usecase/activity"
	authUC "github.com/fastygo/teamtasks/usecase/auth"
	notificationUC "github.com/fastygo/teamtasks/usecase/notification"
	profileUC "github.com/fastygo/teamtasks/usecase/profile"
	taskUC "github.com/fastygo/teamtasks/usecase/task"
	teamUC "github.com/fastygo/teamtasks/usecase/team"
	timeUC "github.com/fastygo/teamtasks/usecase/timetrack"
)

const devJWTSecret = "teamtasks-dev-secret"

func runServe(parent context.Context) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	if parent == nil {
		parent = context.Background()
	}
	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.SignalContext(parent)
	defer stop()

	repos, err := openStorage(appCtx, cfg, manager, zapLogger)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return err
	}

	var (
		bufferStore *buffer.Store
		enqueuer    services.Enqueuer
	)
	if cfg.Buffer.Enabled {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, "activity")
		if err != nil {
			_ = manager.Shutdown(context.Background())
			return err
		}
		manager.Register("buffer", func(context.Context) error {
			return bufferStore.Close()
		})
		enqueuer = bufferStore
		repos.targets.Buffer = bufferStore
	}

	mon := monitor.New(repos.targets, cfg.Context.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	guardedActivity := services.NewGuardedActivityStore(repos.activity, enqueuer, cfg.Breaker, zapLogger)

	if bufferStore != nil {
		replayer, err := services.NewActivityReplayer(bufferStore, mon, repos.activity, zapLogger, services.ReplayConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		})
		if err != nil {
			_ = manager.Shutdown(context.Background())
			return err
		}
		replayer.Start()
		manager.Register("activity_replayer", replayer.Stop)
	}

	clk := clock.System{}
	dispatcher := usecase.NewDispatcher()
	recorder := activityUC.New(guardedActivity, repos.tx, clk, activityUC.Config{
		LoginDedupWindow: cfg.Activity.LoginDedupWindow,
		PageSize:         cfg.Activity.PageSize,
	}, zapLogger.Named("activity"))
	recorder.Register(dispatcher)

	secret := cfg.JWT.Secret
	if secret == "" {
		zapLogger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	tokens := middleware.NewTokens(secret, cfg.JWT.Issuer)

	authUseCase := authUC.New(repos.users, repos.sessions, tokens, dispatcher, clk, zapLogger.Named("auth"),
		authUC.WithSessionTTL(cfg.JWT.SessionTTL))
	profileUseCase := profileUC.New(repos.users, authUseCase, dispatcher, clk, zapLogger.Named("profile"),
		profileUC.WithSessionRevoker(authUseCase))
	teamUseCase := teamUC.New(repos.teams, repos.tasks, repos.users, repos.tx, dispatcher, clk, zapLogger.Named("team"))
	taskUseCase := taskUC.New(repos.tasks, repos.teams, repos.users, repos.tx, dispatcher, clk, zapLogger.Named("task"))
	notificationUseCase := notificationUC.New(repos.teams, repos.tasks, clk, zapLogger.Named("notification"))
	timeUseCase := timeUC.New(repos.times, repos.tasks, repos.teams, repos.tx, clk, zapLogger.Named("time"))

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:      apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Team:         apiHandler.NewTeamHandler(teamUseCase, ctxAdapter, zapLogger),
		Task:         apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notificationUseCase, ctxAdapter, zapLogger),
		Activity:     apiHandler.NewActivityHandler(recorder, teamUseCase, ctxAdapter, zapLogger),
		Time:         apiHandler.NewTimeHandler(timeUseCase, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, guardedActivity, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(tokens, authUseCase, cfg.Context.RequestTimeout, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	zapLogger.Info("server started",
		zap.String("address", cfg.Address()),
		zap.String("storage", cfg.Storage),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("buffer", cfg.Buffer.Enabled),
	)
	return manager.Run(appCtx, func() error {
		return server.ListenAndServe(cfg.Address())
	})
}
