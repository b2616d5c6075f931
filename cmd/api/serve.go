package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"userauth/api/internal/cache"
	"userauth/api/internal/config"
	"userauth/api/internal/handlers"
	"userauth/api/internal/jobs"
	"userauth/api/internal/mail"
	"userauth/api/internal/metrics"
	"userauth/api/internal/security"
	"userauth/api/internal/server"
	"userauth/api/internal/service"
	"userauth/api/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	users, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	var revoked security.RevocationList = security.NopRevocationList{}
	var cachePinger handlers.Pinger
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			_ = users.close(context.Background())
			return oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Redis.Addr).Wrap(err)
		}
		denylist := cache.NewRedisDenylist(redisClient)
		revoked = denylist
		cachePinger = denylist
	}

	deps, err := buildServices(ctx, cfg, logger, users, revoked)
	if err != nil {
		_ = users.close(context.Background())
		return err
	}
	deps.Handlers.Cache = cachePinger

	handlerSet := handlers.NewHandlerSet(logger, cfg, deps.Handlers)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet, deps.Handlers.Metrics)

	scheduler := jobs.NewScheduler(deps.Resets, deps.Handlers.Metrics, cfg.Jobs.ResetPurgeSchedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Start()
	}()

	return waitForShutdown(ctx, logger, httpServer, scheduler, users, redisClient, serveErr)
}

type serviceSet struct {
	Handlers handlers.Dependencies
	Resets   *service.ResetTokenManager
}

func buildServices(
	ctx context.Context,
	cfg *config.AppConfig,
	logger zerolog.Logger,
	users userStore,
	revoked security.RevocationList,
) (serviceSet, error) {
	hasher, err := security.NewHasher(cfg.Security.PasswordHasher, cfg.Security.BcryptCost)
	if err != nil {
		return serviceSet{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	tokens := security.NewTokenIssuer(cfg.Security)
	resets := service.NewResetTokenManager(users, cfg.Security.ResetTokenTTL, time.Now)

	sender, err := mail.NewSender(cfg.Mail, logger)
	if err != nil {
		return serviceSet{}, oops.Code("MAIL_INIT_FAILED").With("host", cfg.Mail.Host).Wrap(err)
	}
	mailer, err := mail.NewResetMailer(sender, cfg.Mail.ResetBaseURL, cfg.Security.ResetTokenTTL)
	if err != nil {
		return serviceSet{}, oops.Code("MAIL_INIT_FAILED").Wrap(err)
	}

	m := metrics.New()
	auth := service.NewAuthService(users, hasher, tokens, resets, mailer, cfg, logger,
		service.WithRevocationList(revoked),
		service.WithMetrics(m),
	)

	var avatars *service.AvatarService
	var storagePinger handlers.Pinger
	if cfg.Storage.Enabled() {
		objectStore, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			return serviceSet{}, oops.Code("STORAGE_INIT_FAILED").With("endpoint", cfg.Storage.Endpoint).Wrap(err)
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Str("bucket", cfg.Storage.BucketAvatars).Msg("ensure bucket failed")
		}
		avatars = service.NewAvatarService(users, objectStore, cfg.Storage.MaxImageBytes, logger)
		storagePinger = objectStore
	} else {
		logger.Info().Msg("profile image storage not configured; upload route disabled")
	}

	return serviceSet{
		Handlers: handlers.Dependencies{
			Auth:    auth,
			Avatars: avatars,
			Tokens:  tokens,
			Revoked: revoked,
			Store:   users,
			Storage: storagePinger,
			Metrics: m,
		},
		Resets: resets,
	}, nil
}

func waitForShutdown(
	ctx context.Context,
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	users userStore,
	redisClient *redis.Client,
	serveErr <-chan error,
) error {
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-serveErr:
		logger.Error().Err(runErr).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if runErr == nil {
		runErr = <-serveErr
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("reset purge still running at shutdown")
	}

	if err := users.close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("store close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	if runErr != nil {
		return oops.Code("SERVER_FAILED").Wrap(runErr)
	}
	logger.Info().Msg("server exited cleanly")
	return nil
}
