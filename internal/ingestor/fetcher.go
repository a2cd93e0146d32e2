// Package ingestor turns a tenant's configured playlist and guide URLs into
// the merged channel and event sets that make up a snapshot. Fetching,
// parsing and merging are separate stages so that one failing source never
// takes down a whole cycle.
package ingestor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feedarr/feedarr/internal/httpclient"
	"github.com/feedarr/feedarr/internal/observability"
)

// Fetcher configuration defaults.
const (
	defaultFetchTimeout     = 5 * time.Minute
	defaultFetchConcurrency = 4
	defaultMaxPayloadBytes  = 256 << 20 // 256MB guard against runaway payloads
)

// Fetcher downloads source payloads with bounded concurrency.
type Fetcher struct {
	client      *httpclient.Client
	logger      *slog.Logger
	concurrency int
	maxBytes    int64
}

// NewFetcher creates a Fetcher. concurrency <= 0 uses the default bound.
func NewFetcher(cfg httpclient.Config, concurrency int, logger *slog.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Logger = logger
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	return &Fetcher{
		client:      httpclient.New(cfg),
		logger:      observability.WithComponent(logger, "fetcher"),
		concurrency: concurrency,
		maxBytes:    defaultMaxPayloadBytes,
	}
}

// FetchResult is the outcome of downloading one source URL. Index preserves
// the position in the input slice so merge precedence survives the fan-out.
type FetchResult struct {
	URL   string
	Index int
	Data  []byte
	Err   error
}

// FetchAll downloads all URLs concurrently. A failed download is reported in
// its result rather than aborting the others; results come back in input
// order.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []FetchResult {
	results := make([]FetchResult, len(urls))

	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)
	for i, url := range urls {
		g.Go(func() error {
			data, err := f.fetch(ctx, url)
			results[i] = FetchResult{URL: url, Index: i, Data: data, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetch downloads a single URL into memory.
func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	resp, err := f.client.GetOK(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching source: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading source body: %w", err)
	}

	f.logger.Debug("source fetched",
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)
	return data, nil
}
