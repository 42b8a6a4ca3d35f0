package di

import (
	"context"
	"errors"

	"quality_watchdog/internal/config"
	"quality_watchdog/internal/feature/quality/adapters/alert"
	"quality_watchdog/internal/feature/quality/domain/expectation"
	"quality_watchdog/internal/feature/quality/usecase"
	healthhandler "quality_watchdog/internal/platform/http/handler"
)

// App holds the process-lifetime components built from Config.
type App struct {
	Config  *config.Config
	Store   Store
	Monitor *usecase.MonitorUsecase
	History *usecase.HistoryUsecase
	Demo    *usecase.DemoUsecase
	Checks  []healthhandler.Check

	closers []func(context.Context) error
}

// NewApp wires every adapter into the usecases.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	fetcher, decoder, err := NewUpstream(cfg.Upstream)
	if err != nil {
		return nil, err
	}

	sh, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, closers: []func(context.Context) error{sh.Close}}
	if sh.Check != nil {
		app.Checks = append(app.Checks, *sh.Check)
	}

	s := sh.Store
	if sh.Enabled {
		if rdb := NewCache(ctx, cfg.Redis); rdb != nil {
			s = WrapStore(rdb, cfg.Redis, s)
			app.Checks = append(app.Checks, cacheCheck(rdb))
			app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
		}
	}
	app.Store = s

	mailer := alert.NewMailer(alert.Config{
		APIKey: cfg.Alert.SendGridAPIKey,
		From:   cfg.Alert.From,
		To:     cfg.Alert.To,
	})
	suite := expectation.DefaultSuite(cfg.Monitor.SuiteName)

	app.Monitor = usecase.NewMonitorUsecase(fetcher, decoder, suite, s, mailer,
		usecase.WithQualityThreshold(cfg.Monitor.QualityThreshold))
	app.History = usecase.NewHistoryUsecase(s)
	app.Demo = usecase.NewDemoUsecase(s, nil)
	return app, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
