package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/web"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the operations HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return withCode(exitFatal, err)
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return withCode(exitFatal, err)
	}
	defer a.Close()

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = a.registry
	}

	server := web.NewServer(cfg.Server, web.Options{
		Runner:     a.pipeline,
		Store:      a.store,
		Recorder:   a.recorder,
		Errors:     a.sink,
		Gatherer:   gatherer,
		RunTimeout: cfg.Pipeline.Timeout,
	})

	if cfg.Pipeline.ScheduleInterval > 0 {
		go core.StartScheduler(ctx, cfg.Pipeline.ScheduleInterval, server.Run)
	}

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return withCode(exitFatal, err)
	}
	<-stopped
	slog.Info("server stopped")
	return nil
}
