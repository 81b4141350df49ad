// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/config"
	"github.com/yourusername/recipe-box/internal/logging"
	"github.com/yourusername/recipe-box/internal/recipes"
	"github.com/yourusername/recipe-box/internal/server"
	"github.com/yourusername/recipe-box/internal/session"
	"github.com/yourusername/recipe-box/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := storage.Open(ctx, storage.Options{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseURL,
		Logger: logger,
		Debug:  cfg.GinMode == gin.DebugMode,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(db); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}()

	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	backend, closeBackend, err := newSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	sessions := session.NewManager(backend, cfg.SessionMaxAge)
	authSvc := auth.NewService(storage.NewUserStore(db), sessions, auth.NewBcryptHasher(cfg.BcryptCost))
	authManager := auth.NewManager(authSvc, auth.Options{
		MaxAge:         cfg.SessionMaxAge,
		CSRFProtection: cfg.CSRFProtection,
	})
	recipeSvc := recipes.NewService(storage.NewRecipeStore(db), recipes.Policy{
		RequireSessionForByID: cfg.RecipeByIDRequireLogin,
		EnforceOwnership:      cfg.RecipeEnforceOwnership,
	})
	if !cfg.RecipeByIDRequireLogin {
		logger.Warn("recipe get/update/delete by id are open to anonymous callers; set RECIPE_BY_ID_REQUIRE_LOGIN=true to restrict them")
	}

	router := server.NewRouter(server.Dependencies{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Auth:    authManager,
		Recipes: recipeSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"addr", srv.Addr,
			"mode", cfg.GinMode,
			"session_backend", cfg.SessionBackend,
			"database_driver", cfg.DatabaseDriver,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrors:
		return errors.Wrap(err, "http server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	logger.Info("http server stopped")
	return nil
}

// newSessionBackend は設定に応じたセッションの保存先を返します。
func newSessionBackend(ctx context.Context, cfg *config.Config) (session.Backend, func(), error) {
	if cfg.SessionBackend != config.SessionBackendRedis {
		return session.NewMemoryBackend(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid REDIS_URL")
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, errors.Wrap(err, "failed to connect to redis")
	}

	return session.NewRedisBackend(rdb), func() { _ = rdb.Close() }, nil
}
