// Package upstream provides the HTTP client for the monitored market-data API.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"quality_watchdog/internal/feature/quality/domain"
	"quality_watchdog/internal/feature/quality/usecase"
	"quality_watchdog/internal/shared/ratelimiter"
)

// maxBodyBytes bounds how much of a response body is read into memory.
const maxBodyBytes = 64 << 20

// ErrRetriesExhausted is wrapped by FetchError when every attempt hit a retryable status.
var ErrRetriesExhausted = errors.New("max retries exceeded")

// DefaultRetryStatuses are the HTTP statuses that trigger a retry.
var DefaultRetryStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Config holds configuration for the upstream fetcher.
type Config struct {
	URL           string        // Upstream endpoint
	APIKey        string        // Optional API key appended as a query parameter
	APIKeyParam   string        // Query parameter name for APIKey (default "apikey")
	MaxRetries    int           // Retries after the first attempt
	Backoff       time.Duration // Delay before the first retry; doubled for each further retry
	RetryStatuses []int         // Statuses that trigger a retry
}

// PayloadCheck inspects a 200 response body for an in-band upstream error.
type PayloadCheck func(raw []byte) error

// Fetcher issues one GET per run against the upstream API with bounded retries.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
	check   PayloadCheck
	logger  *slog.Logger
}

// Fetcher が usecase.Fetcher を実装していることをコンパイル時に検証します。
var _ usecase.Fetcher = (*Fetcher)(nil)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPayloadCheck sets the in-band error check run on successful responses.
func WithPayloadCheck(check PayloadCheck) Option {
	return func(f *Fetcher) { f.check = check }
}

// WithRateLimiter paces every attempt through limiter.
func WithRateLimiter(limiter ratelimiter.RateLimiterInterface) Option {
	return func(f *Fetcher) { f.limiter = limiter }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a Fetcher. The client's Timeout bounds each attempt.
func NewFetcher(cfg Config, client *http.Client, opts ...Option) *Fetcher {
	if cfg.APIKeyParam == "" {
		cfg.APIKeyParam = "apikey"
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = DefaultRetryStatuses
	}
	f := &Fetcher{cfg: cfg, client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BackoffFor returns the delay before the given retry (1-based): Backoff × 2^(retry-1).
func (f *Fetcher) BackoffFor(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	return f.cfg.Backoff << (retry - 1)
}

// Fetch returns the raw body of a 200 response.
//
// Statuses in RetryStatuses and transport failures are retried up to MaxRetries
// times. Any other non-200 status, exhausted retries, a cancelled context, or an
// in-band error reported by the PayloadCheck yields a *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	target, redacted, err := f.buildURL()
	if err != nil {
		return nil, &domain.FetchError{URL: redacted, Err: err}
	}

	var (
		lastStatus int
		lastErr    error
		attempts   int
	)
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.BackoffFor(attempt)
			f.logger.Debug("retrying upstream request", "attempt", attempt, "backoff", delay, "url", redacted)
			if err := sleep(ctx, delay); err != nil {
				return nil, &domain.FetchError{URL: redacted, StatusCode: lastStatus, Attempts: attempts, Err: err}
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, &domain.FetchError{URL: redacted, StatusCode: lastStatus, Attempts: attempts, Err: err}
			}
		}

		attempts++
		status, body, err := f.do(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &domain.FetchError{URL: redacted, Attempts: attempts, Err: err}
			}
			lastStatus, lastErr = 0, err
			f.logger.Warn("upstream request failed", "attempt", attempts, "url", redacted, "error", err)
			continue
		}

		if status == http.StatusOK {
			if f.check != nil {
				if err := f.check(body); err != nil {
					return nil, &domain.FetchError{URL: redacted, StatusCode: status, Attempts: attempts, Err: err}
				}
			}
			return body, nil
		}

		f.logger.Warn("upstream returned non-200 status",
			"status", status,
			"attempt", attempts,
			"url", redacted,
			"body", truncate(body, 512),
		)
		if !slices.Contains(f.cfg.RetryStatuses, status) {
			return nil, &domain.FetchError{URL: redacted, StatusCode: status, Attempts: attempts}
		}
		lastStatus, lastErr = status, nil
	}

	if lastStatus != 0 {
		return nil, &domain.FetchError{URL: redacted, StatusCode: lastStatus, Attempts: attempts, Err: ErrRetriesExhausted}
	}
	return nil, &domain.FetchError{
		URL:      redacted,
		Attempts: attempts,
		Err:      fmt.Errorf("%w after %d attempt(s): %w", ErrRetriesExhausted, attempts, lastErr),
	}
}

// do performs a single GET and reads the body.
func (f *Fetcher) do(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return res.StatusCode, body, nil
}

// buildURL appends the API key and returns the request URL and a log-safe copy.
func (f *Fetcher) buildURL() (string, string, error) {
	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return "", "<invalid url>", fmt.Errorf("parse upstream url: %w", err)
	}
	if f.cfg.APIKey == "" {
		return u.String(), u.String(), nil
	}

	q := u.Query()
	q.Set(f.cfg.APIKeyParam, f.cfg.APIKey)
	u.RawQuery = q.Encode()
	target := u.String()

	q.Set(f.cfg.APIKeyParam, "REDACTED")
	u.RawQuery = q.Encode()
	return target, u.String(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
