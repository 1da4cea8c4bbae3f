package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/kdh92417/team-tasks/internal/api/http"
	"github.com/kdh92417/team-tasks/internal/api/http/handlers"
	"github.com/kdh92417/team-tasks/internal/auth"
	"github.com/kdh92417/team-tasks/internal/events"
	"github.com/kdh92417/team-tasks/internal/observability"
	"github.com/kdh92417/team-tasks/internal/persistence"
	"github.com/kdh92417/team-tasks/internal/repository"
	"github.com/kdh92417/team-tasks/internal/service"
	"github.com/kdh92417/team-tasks/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		return errors.New("POSTGRES_DSN is required to serve requests")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pool)
	repos := store.Repositories()
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	revocations := auth.NewRedisRevocationStore(redis.Client)
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     repos.Users,
		TokenManager: tokens,
		Revocations:  revocations,
	})
	taskService := service.NewTaskService(service.TaskDependencies{Store: store, Dispatcher: dispatcher})
	completionService := service.NewCompletionService(service.CompletionDependencies{Store: store, Dispatcher: dispatcher})

	var redisPinger handlers.Pinger
	if redis.Enabled() {
		redisPinger = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Teams:          handlers.NewTeamsHandler(service.NewTeamService(repos.Teams)),
		Tasks:          handlers.NewTasksHandler(taskService),
		SubTasks:       handlers.NewSubTasksHandler(taskService, completionService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.Users, revocations),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		logger.Error("fiber listen", zap.Error(err))
		return err
	case sig := <-shutdownSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.Shutdown()
}

func shutdownSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
