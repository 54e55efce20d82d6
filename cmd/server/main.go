package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohits-web03/inkwell/internal/api"
	"github.com/rohits-web03/inkwell/internal/api/handlers"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/media"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/rohits-web03/inkwell/internal/session"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// @title Inkwell API
// @version 1.0
// @description Blogging platform API: accounts, sessions and posts with cover images.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// coverBackend picks the configured media backend and the handler that
// serves the covers it stores.
func coverBackend(cfg config.Config, logger *slog.Logger) (media.Backend, http.Handler, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendR2:
		store := repositories.NewR2Store(cfg.R2)
		return store, handlers.RemoteCovers(store, logger), nil
	default:
		store, err := repositories.NewDiskStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		return store, handlers.DiskCovers(store.Dir()), nil
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	db, err := repositories.ConnectDatabase(cfg.DB_URL)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	backend, covers, err := coverBackend(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up %s media backend: %w", cfg.MediaBackend, err)
	}

	tokens := session.NewService(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(repositories.NewUserRepository(db), tokens, cfg)
	postService := services.NewPostService(
		repositories.NewPostRepository(db),
		media.NewManager(backend, logger),
		cfg,
	)

	var google handlers.GoogleAuth
	if client := services.NewGoogleClient(cfg.Google); client != nil {
		google = client
	}

	handler := api.NewRouter(api.Deps{
		Auth:   handlers.NewAuthHandler(authService, google, cfg, logger),
		Posts:  handlers.NewPostHandler(postService, cfg, logger),
		Covers: covers,
		Tokens: tokens,
		Cors:   cfg.CorsConfig,
		Logger: logger,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting Inkwell server",
			slog.String("port", cfg.Port),
			slog.String("env", cfg.Environment),
			slog.String("media_backend", cfg.MediaBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}
