package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"quality_watchdog/internal/app/di"
	"quality_watchdog/internal/config"
	"quality_watchdog/internal/feature/quality/domain/entity"
	"quality_watchdog/internal/feature/quality/usecase"
)

// deps is the subset of the application the subcommands use.
type deps struct {
	monitor interface {
		Run(ctx context.Context, force bool) (*usecase.Result, error)
	}
	history interface {
		Recent(ctx context.Context, limit int) ([]entity.StoredDocument, error)
	}
	lastHash usecase.LastHashReader
	demo     interface {
		SeedDemo(ctx context.Context, hours int, interval time.Duration) (*usecase.SeedReport, error)
	}
	close func(ctx context.Context) error
}

// loadDeps builds the application from the environment. Tests replace it.
var loadDeps = func(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &deps{
		monitor:  app.Monitor,
		history:  app.History,
		lastHash: app.Store,
		demo:     app.Demo,
		close:    app.Close,
	}, nil
}

var rootCmd = &cobra.Command{
	Use:           "watchdogctl",
	Short:         "Operate the market-data quality watchdog",
	Long:          `Run the validation pipeline once, inspect stored results, seed demo history, or mint API tokens.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// withDeps loads the application, runs fn and releases connections.
func withDeps(cmd *cobra.Command, fn func(ctx context.Context, d *deps) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if d.close != nil {
			_ = d.close(context.Background())
		}
	}()
	return fn(ctx, d)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
