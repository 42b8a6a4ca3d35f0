// Package schedule runs the monitor pipeline on a fixed interval.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"quality_watchdog/internal/feature/quality/usecase"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context, force bool) (*usecase.Result, error)
}

// Config holds poller settings.
type Config struct {
	Interval time.Duration // Time between passes
	Timeout  time.Duration // Upper bound for one pass; 0 means no bound
}

// DefaultConfig returns the default poller configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Minute,
		Timeout:  2 * time.Minute,
	}
}

// Poller triggers Runner.Run periodically. The first pass starts immediately.
// Passes never overlap: a pass that outlasts the interval delays the next tick.
type Poller struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Poller. A nil logger uses slog.Default().
func New(cfg Config, runner Runner, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{cfg: cfg, runner: runner, logger: logger.With("component", "poller")}
}

// Start launches the polling loop in the background.
func (p *Poller) Start(ctx context.Context) error {
	if p.cfg.Interval <= 0 {
		return errors.New("poller interval must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("poller already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx, p.done)

	p.logger.Info("poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop cancels the loop and waits for the current pass to finish or ctx to expire.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		p.logger.Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.poll(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs one pass. Errors are already alerted by the usecase, so they are only logged.
func (p *Poller) poll(ctx context.Context) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := p.runner.Run(ctx, false)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Warn("scheduled run failed", "error", err, "duration", time.Since(start))
		return
	}
	p.logger.Info("scheduled run finished",
		"run_id", res.RunID,
		"skipped", res.Outcome == usecase.OutcomeSkipped,
		"alerted", res.Alerted,
		"duration", time.Since(start),
	)
}
