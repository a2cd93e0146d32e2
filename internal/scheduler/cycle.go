package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/feedarr/feedarr/internal/config"
	"github.com/feedarr/feedarr/internal/httpclient"
	"github.com/feedarr/feedarr/internal/ingestor"
	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/observability"
	"github.com/feedarr/feedarr/internal/repository"
)

// CycleReport summarises one completed parse cycle.
type CycleReport struct {
	ChannelCount  int
	EventCount    int
	SourcesOK     int
	SourcesFailed int
	Warnings      int
	Duration      time.Duration
}

// CycleRunner executes the full parse cycle for one tenant: fetch every
// configured playlist, parse, fetch and parse the guide sources, merge, and
// publish the result as the tenant's new snapshot.
type CycleRunner struct {
	fetcher      *ingestor.Fetcher
	playlists    *ingestor.PlaylistParser
	guides       *ingestor.GuideParser
	tenantRepo   repository.TenantRepository
	snapshotRepo repository.SnapshotRepository
	diagRepo     repository.DiagnosticsRepository

	logger *slog.Logger
	now    func() time.Time
}

// NewCycleRunner creates a CycleRunner.
func NewCycleRunner(
	cfg config.IngestionConfig,
	tenantRepo repository.TenantRepository,
	snapshotRepo repository.SnapshotRepository,
	diagRepo repository.DiagnosticsRepository,
	logger *slog.Logger,
) *CycleRunner {
	if logger == nil {
		logger = slog.Default()
	}

	// Start from the client defaults so the circuit breaker and backoff
	// settings stay sane; config only overrides what it owns.
	clientCfg := httpclient.DefaultConfig()
	if cfg.HTTPTimeout > 0 {
		clientCfg.Timeout = cfg.HTTPTimeout
	}
	if cfg.RetryAttempts > 0 {
		clientCfg.RetryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		clientCfg.RetryDelay = cfg.RetryDelay
	}

	return &CycleRunner{
		fetcher:      ingestor.NewFetcher(clientCfg, cfg.SourceConcurrency, logger),
		playlists:    ingestor.NewPlaylistParser(logger),
		guides:       ingestor.NewGuideParser(logger).WithHorizon(cfg.GuideHorizon.Duration()),
		tenantRepo:   tenantRepo,
		snapshotRepo: snapshotRepo,
		diagRepo:     diagRepo,
		logger:       observability.WithComponent(logger, "cycle-runner"),
		now:          time.Now,
	}
}

// Run executes one parse cycle. When every playlist source fails the prior
// snapshot is left untouched, the failure is stamped on the tenant and
// models.ErrAllSourcesFailed is returned. Individual source failures are
// recorded in the tenant's error log without failing the cycle.
func (c *CycleRunner) Run(ctx context.Context, tenant *models.Tenant, trigger string) (*CycleReport, error) {
	started := c.now()
	report := &CycleReport{}
	var errRecords []*models.ParseErrorRecord

	recordError := func(kind models.ParseErrorKind, sourceURL string, err error) {
		errRecords = append(errRecords, &models.ParseErrorRecord{
			TenantID:   tenant.ID,
			OccurredAt: c.now(),
			Kind:       kind,
			SourceURL:  sourceURL,
			Message:    err.Error(),
		})
	}

	// Playlist sources, in configured order.
	channelBatches := make([][]*models.Channel, 0, len(tenant.SourceURLs))
	guideURLs := make([]string, 0, len(tenant.EPGURLs))
	seenGuide := make(map[string]struct{})
	addGuideURL := func(url string) {
		if _, ok := seenGuide[url]; ok {
			return
		}
		seenGuide[url] = struct{}{}
		guideURLs = append(guideURLs, url)
	}
	for _, url := range tenant.EPGURLs {
		addGuideURL(url)
	}

	for _, result := range c.fetcher.FetchAll(ctx, tenant.SourceURLs) {
		if result.Err != nil {
			report.SourcesFailed++
			recordError(models.ParseErrorFetch, result.URL, result.Err)
			continue
		}

		parsed, err := c.playlists.Parse(ctx, result.Data, result.Index)
		if err != nil {
			report.SourcesFailed++
			recordError(models.ParseErrorParse, result.URL, err)
			continue
		}

		report.SourcesOK++
		report.Warnings += parsed.Warnings
		channelBatches = append(channelBatches, parsed.Channels)
		for _, url := range parsed.EPGURLs {
			addGuideURL(url)
		}
	}

	if report.SourcesOK == 0 {
		return nil, c.fail(ctx, tenant, trigger, started, report, errRecords, models.ErrAllSourcesFailed)
	}

	// Guide sources: configured ones plus those discovered in playlists.
	// A failing guide source degrades the snapshot, it does not fail it.
	eventBatches := make([][]*models.EPGEvent, 0, len(guideURLs))
	for _, result := range c.fetcher.FetchAll(ctx, guideURLs) {
		if result.Err != nil {
			recordError(models.ParseErrorFetch, result.URL, result.Err)
			continue
		}

		parsed, err := c.guides.Parse(ctx, result.Data)
		if err != nil {
			recordError(models.ParseErrorParse, result.URL, err)
			continue
		}

		report.Warnings += parsed.Warnings
		eventBatches = append(eventBatches, parsed.Events)
	}

	channels := ingestor.MergeChannels(channelBatches...)
	events := ingestor.MergeEvents(eventBatches...)
	report.ChannelCount = len(channels)
	report.EventCount = len(events)
	report.Duration = c.now().Sub(started)

	history := &models.ParseHistoryEntry{
		TenantID:      tenant.ID,
		StartedAt:     started,
		Success:       true,
		Trigger:       trigger,
		ChannelCount:  report.ChannelCount,
		EventCount:    report.EventCount,
		SourcesOK:     report.SourcesOK,
		SourcesFailed: report.SourcesFailed,
		WarningCount:  report.Warnings,
		DurationMs:    report.Duration.Milliseconds(),
	}

	err := c.snapshotRepo.Publish(ctx, tenant.ID, repository.Snapshot{
		Channels: channels,
		Events:   events,
		History:  history,
	})
	if err != nil {
		recordError(models.ParseErrorStore, "", err)
		return nil, c.fail(ctx, tenant, trigger, started, report, errRecords, err)
	}

	c.appendErrors(ctx, errRecords)

	c.logger.Info("parse cycle completed",
		slog.String("tenant_id", tenant.ID.String()),
		slog.String("trigger", trigger),
		slog.Int("channels", report.ChannelCount),
		slog.Int("events", report.EventCount),
		slog.Int("sources_ok", report.SourcesOK),
		slog.Int("sources_failed", report.SourcesFailed),
		slog.Int("warnings", report.Warnings),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// fail records a cycle that never reached publish: the failure is stamped on
// the tenant, written to history and the error log, and the prior snapshot
// stays in place.
func (c *CycleRunner) fail(
	ctx context.Context,
	tenant *models.Tenant,
	trigger string,
	started time.Time,
	report *CycleReport,
	errRecords []*models.ParseErrorRecord,
	cause error,
) error {
	finished := c.now()

	if err := c.tenantRepo.RecordFailure(ctx, tenant.ID, finished, cause.Error()); err != nil {
		c.logger.Error("failed to record cycle failure",
			slog.String("tenant_id", tenant.ID.String()),
			slog.Any("error", err),
		)
	}

	history := &models.ParseHistoryEntry{
		TenantID:      tenant.ID,
		StartedAt:     started,
		Success:       false,
		Trigger:       trigger,
		SourcesOK:     report.SourcesOK,
		SourcesFailed: report.SourcesFailed,
		WarningCount:  report.Warnings,
		DurationMs:    finished.Sub(started).Milliseconds(),
		Error:         cause.Error(),
	}
	if err := c.diagRepo.AppendHistory(ctx, history); err != nil {
		c.logger.Error("failed to append failure history",
			slog.String("tenant_id", tenant.ID.String()),
			slog.Any("error", err),
		)
	}

	c.appendErrors(ctx, errRecords)

	c.logger.Warn("parse cycle failed",
		slog.String("tenant_id", tenant.ID.String()),
		slog.String("trigger", trigger),
		slog.Int("sources_failed", report.SourcesFailed),
		slog.Any("error", cause),
	)
	return cause
}

// appendErrors writes collected error records, best effort.
func (c *CycleRunner) appendErrors(ctx context.Context, records []*models.ParseErrorRecord) {
	if len(records) == 0 {
		return
	}
	if err := c.diagRepo.AppendErrors(ctx, records); err != nil {
		c.logger.Error("failed to append parse errors", slog.Any("error", err))
	}
}
