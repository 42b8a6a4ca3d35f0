// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"log/slog"
	"time"

	"quality_watchdog/internal/config"
	"quality_watchdog/internal/feature/quality/adapters/ingest"
	"quality_watchdog/internal/feature/quality/adapters/upstream"
	infrahttp "quality_watchdog/internal/platform/http"
	"quality_watchdog/internal/shared/ratelimiter"
)

// NewUpstream creates the configured ingestion variant and a Fetcher that
// screens 200 responses with that variant's in-band error check.
func NewUpstream(cfg config.UpstreamConfig) (*upstream.Fetcher, ingest.Decoder, error) {
	decoder, err := ingest.New(cfg.Variant)
	if err != nil {
		return nil, nil, fmt.Errorf("upstream variant: %w", err)
	}

	opts := []upstream.Option{
		upstream.WithPayloadCheck(decoder.CheckPayload),
		upstream.WithLogger(slog.Default()),
	}
	if cfg.RatePerMinute > 0 {
		opts = append(opts, upstream.WithRateLimiter(ratelimiter.NewRateLimiter(cfg.RatePerMinute, time.Minute)))
	}

	fetcher := upstream.NewFetcher(upstream.Config{
		URL:           cfg.URL,
		APIKey:        cfg.APIKey,
		APIKeyParam:   cfg.APIKeyParam,
		MaxRetries:    cfg.MaxRetries,
		Backoff:       cfg.Backoff,
		RetryStatuses: cfg.RetryStatuses,
	}, infrahttp.NewHTTPClient(cfg.Timeout), opts...)

	return fetcher, decoder, nil
}
