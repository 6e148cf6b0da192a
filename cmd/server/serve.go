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

	"github.com/spf13/cobra"

	"github.com/noahxzhu/interval-alert/internal/alert"
	"github.com/noahxzhu/interval-alert/internal/config"
	"github.com/noahxzhu/interval-alert/internal/notify"
	"github.com/noahxzhu/interval-alert/internal/pushover"
	"github.com/noahxzhu/interval-alert/internal/storage"
	"github.com/noahxzhu/interval-alert/internal/web"
	"github.com/noahxzhu/interval-alert/internal/worker"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the alert worker and the web form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(parent context.Context, configPath string) error {
	// Load Config
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	// Setup structured logger (JSON handler)
	level := new(slog.LevelVar)
	lvl, _ := config.ParseLevel(cfg.Log.Level)
	level.Set(lvl)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	config.Watch(configPath, func(c *config.Config) {
		if l, err := config.ParseLevel(c.Log.Level); err == nil {
			level.Set(l)
		}
	})

	// Init Storage
	store := storage.NewStore(cfg.Storage.FilePath)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	// Delivery channels
	handlers := notify.Multi{notify.Log{}}
	if cfg.Notify.Desktop {
		handlers = append(handlers, notify.NewDesktop(cfg.Notify.Title))
	}
	pushClient := pushover.NewClient("", "", cfg.Notify.PushMinInterval)
	handlers = append(handlers, pushover.NewNotifier(store, pushClient, cfg.Notify.Title))

	// Init Worker
	w := worker.NewWorker(store, handlers, worker.WithNotifyTimeout(cfg.Notify.Timeout))
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	workerDone := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(workerDone)
	}()

	// Init Web Server
	srv := web.NewServer(store, alert.NewScheduler(w), cfg.Server.Password)
	httpServer := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port, "url", "http://localhost"+cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-serveErr:
		cancel()
		<-workerDone
		return fmt.Errorf("http server error: %w", err)
	}

	slog.Info("Shutting down...")
	cancel() // Stop worker

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-workerDone
	slog.Info("Server exited")
	return nil
}
