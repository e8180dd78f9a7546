package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akawula/TaskMatic/cmd/server/auth"
	"github.com/akawula/TaskMatic/internal/config"
	"github.com/akawula/TaskMatic/internal/tasks"
	"github.com/akawula/TaskMatic/internal/timeutils"
	"github.com/akawula/TaskMatic/slack"
	"github.com/akawula/TaskMatic/store"
)

func main() {
	config.LoadDotEnv()
	logger := config.Logger()

	if err := run(logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database Connection Initialization ---
	dbConf, err := config.DatabaseFromEnv()
	if err != nil {
		return err
	}
	dbURL := dbConf.URL()

	if err := store.WaitForDatabase(ctx, dbURL, 5, 5*time.Second, logger); err != nil {
		return err
	}
	if err := store.RunMigrations(dbURL, config.Get("MIGRATIONS_PATH", "file://migrations"), logger); err != nil {
		return err
	}

	db, err := store.NewPostgres(ctx, dbURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	// --- End Database Connection Initialization ---

	cal, err := timeutils.LoadCalendarFromEnv()
	if err != nil {
		return err
	}
	logger.Info("Business calendar loaded", "calendar", cal.String())

	authn, err := auth.New(os.Getenv("JWT_SECRET"))
	if err != nil {
		return err
	}

	notifier := slack.New(os.Getenv("SLACK_WEBHOOK_URL"), logger)
	if c, ok := notifier.(io.Closer); ok {
		defer c.Close()
	}

	svc := &tasks.Service{
		Store:    db,
		Calendar: cal,
		Notifier: notifier,
		Logger:   logger,
		Now:      time.Now,
		BaseURL:  os.Getenv("APP_BASE_URL"),
	}

	router := newRouter(routerDeps{
		logger:   logger,
		db:       db,
		auth:     authn,
		svc:      svc,
		calendar: cal,
		now:      time.Now,
		origins:  config.GetList("CORS_ORIGINS", []string{"*"}),
	})

	port := config.Get("PORT", "10000")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
