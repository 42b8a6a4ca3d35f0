package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"quality_watchdog/internal/app/di"
	"quality_watchdog/internal/app/router"
	"quality_watchdog/internal/config"
	qualityhandler "quality_watchdog/internal/feature/quality/transport/handler"
	"quality_watchdog/internal/feature/quality/schedule"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if cfg.SlogLevel() != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			slog.Error("failed to close connections", "error", err)
		}
	}()

	// MONITOR_JWT_SECRET チェック（本番環境での注意喚起）
	if cfg.Server.JWTSecret == "" {
		slog.Warn("MONITOR_JWT_SECRET is not set. /api endpoints are unauthenticated.")
	}

	monitorH := qualityhandler.NewMonitorHandler(app.Monitor, app.History)
	engine := router.NewRouter(monitorH, cfg.Server.JWTSecret, app.Checks...)

	// 定期実行（POLL_INTERVAL > 0 のときのみ）
	var poller *schedule.Poller
	if cfg.Monitor.PollInterval > 0 {
		poller = schedule.New(schedule.Config{
			Interval: cfg.Monitor.PollInterval,
			Timeout:  cfg.Monitor.PollTimeout,
		}, app.Monitor, slog.Default())
		if err := poller.Start(ctx); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "variant", cfg.Upstream.Variant, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if poller != nil {
		if err := poller.Stop(shutdownCtx); err != nil {
			slog.Warn("poller did not stop cleanly", "error", err)
		}
	}
	return srv.Shutdown(shutdownCtx)
}
