package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/wedge-builds/internal/api"
	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/config"
	"github.com/dom/wedge-builds/internal/logger"
	"github.com/dom/wedge-builds/internal/notify"
	"github.com/dom/wedge-builds/internal/ratelimit"
	"github.com/dom/wedge-builds/internal/repository/local"
	"github.com/dom/wedge-builds/internal/repository/postgres"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/dom/wedge-builds/internal/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, push hub and notification scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	dbLogLevel := gormlogger.Info
	if cfg.IsProduction() {
		dbLogLevel = gormlogger.Warn
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, postgres.Options{
		LogLevel:        dbLogLevel,
		MaxOpenConns:    25,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := local.Open(cfg.LocalDataDir, log.Named("local"))
	if err != nil {
		return err
	}
	defer store.Close()

	repos := postgres.NewRepositories(db)
	repos.Draft = store.Drafts()
	repos.Notification = store.Notifications()

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	hub := websocket.NewHub(log.Named("ws"))
	services := service.NewServices(repos, cat, cfg, log)
	services.Build.SetVoteListener(hub)

	limiter := ratelimit.New(cfg.VoteRatePerSecond, cfg.VoteRateBurst)
	defer limiter.Stop()

	scheduler := notify.NewScheduler(repos.Notification, hub, cfg.NotifyPollInterval, log.Named("notify"))

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      api.NewRouter(services, hub, limiter, cfg, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		hub.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
