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

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/innopoints/innopoints-api/internal/api"
	"github.com/innopoints/innopoints-api/internal/config"
	"github.com/innopoints/innopoints-api/internal/db"
	"github.com/innopoints/innopoints-api/internal/logger"
	"github.com/innopoints/innopoints-api/internal/notify"
	"github.com/innopoints/innopoints-api/internal/repository"
	"github.com/innopoints/innopoints-api/internal/scheduler"
	"github.com/innopoints/innopoints-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	if err = logger.SetLevel(conf.Log.Level); err != nil {
		return fmt.Errorf("failed to set log level -> %w", err)
	}
	conf.Watch(func(c *config.AppConfig) {
		if err := logger.SetLevel(c.Log.Level); err != nil {
			zap.L().Warn("ignoring log level from reloaded config", zap.Error(err))
			return
		}
		zap.L().Info("log level reloaded", zap.String("level", c.Log.Level))
	})

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub(conf.API.AllowedCORSDomains)
	go hub.Run(ctx)

	store := repository.NewStore(postgresDB)
	notifier := notify.Multi{hub, notify.Log{}}

	if spec := conf.Innopoints.ReminderSchedule; spec != "" {
		sched := scheduler.New(service.NewRewardService(store, notifier))
		if err = sched.Schedule(spec); err != nil {
			return fmt.Errorf("failed to schedule reminders -> %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	s := api.NewServer(conf, store, notifier, hub)

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the server -> %w", err)
	}

	return nil
}
