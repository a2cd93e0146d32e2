// Package service provides the business logic layer for feedarr. Core is
// the boundary an API layer calls: everything it exposes is expressed in
// terms of tenants, snapshots, overrides, diagnostics and artwork.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedarr/feedarr/internal/imaging"
	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/repository"
	"github.com/feedarr/feedarr/internal/scheduler"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Core exposes the engine's operations to callers outside the package tree.
type Core struct {
	tenantRepo   repository.TenantRepository
	snapshotRepo repository.SnapshotRepository
	overrideRepo repository.OverrideRepository
	diagRepo     repository.DiagnosticsRepository
	cacheRepo    repository.ImageCacheRepository
	resolver     *imaging.Resolver
	scheduler    *scheduler.Scheduler
	logger       *slog.Logger
}

// NewCore creates the service facade.
func NewCore(
	tenantRepo repository.TenantRepository,
	snapshotRepo repository.SnapshotRepository,
	overrideRepo repository.OverrideRepository,
	diagRepo repository.DiagnosticsRepository,
	cacheRepo repository.ImageCacheRepository,
	resolver *imaging.Resolver,
	sched *scheduler.Scheduler,
) *Core {
	return &Core{
		tenantRepo:   tenantRepo,
		snapshotRepo: snapshotRepo,
		overrideRepo: overrideRepo,
		diagRepo:     diagRepo,
		cacheRepo:    cacheRepo,
		resolver:     resolver,
		scheduler:    sched,
		logger:       slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (c *Core) WithLogger(logger *slog.Logger) *Core {
	c.logger = logger
	return c
}

// Authenticate resolves a tenant by its secret token.
func (c *Core) Authenticate(ctx context.Context, token string) (*models.Tenant, error) {
	tenant, err := c.tenantRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant: %w", err)
	}
	if tenant == nil {
		return nil, models.ErrTenantNotFound
	}
	return tenant, nil
}

// ChannelPage is one page of a tenant's published channels.
type ChannelPage struct {
	Channels []*models.Channel `json:"channels"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// GetChannels returns a page of the tenant's current snapshot, filtered by
// an optional case-insensitive search term. Event channels whose start time
// has long passed are excluded.
func (c *Core) GetChannels(ctx context.Context, tenantID models.ULID, page, pageSize int, search string) (*ChannelPage, error) {
	page, pageSize = clampPage(page, pageSize)

	channels, total, err := c.snapshotRepo.GetChannels(ctx, tenantID, repository.ChannelQuery{
		Search: search,
		Now:    time.Now(),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ChannelPage{Channels: channels, Total: total, Page: page, PageSize: pageSize}, nil
}

// EventPage is one page of a tenant's published guide events.
type EventPage struct {
	Events   []*models.EPGEvent `json:"events"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// GetEvents returns a page of the tenant's current guide, filtered by an
// optional channel ID and case-insensitive search term.
func (c *Core) GetEvents(ctx context.Context, tenantID models.ULID, page, pageSize int, channelID, search string) (*EventPage, error) {
	page, pageSize = clampPage(page, pageSize)

	events, total, err := c.snapshotRepo.GetEvents(ctx, tenantID, repository.EventQuery{
		ChannelID: channelID,
		Search:    search,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &EventPage{Events: events, Total: total, Page: page, PageSize: pageSize}, nil
}

// TriggerParse starts a parse cycle for the tenant immediately. It returns
// models.ErrAlreadyRunning when a cycle is in flight and models.ErrTenantNotFound
// when the tenant does not exist; the cycle itself runs in the background.
func (c *Core) TriggerParse(ctx context.Context, tenantID models.ULID) error {
	return c.scheduler.TriggerParse(ctx, tenantID)
}

// GetParseHistory returns the tenant's most recent parse cycles, newest first.
func (c *Core) GetParseHistory(ctx context.Context, tenantID models.ULID, limit int) ([]*models.ParseHistoryEntry, error) {
	return c.diagRepo.GetHistory(ctx, tenantID, limit)
}

// GetErrors returns the tenant's most recent parse errors, newest first.
func (c *Core) GetErrors(ctx context.Context, tenantID models.ULID, limit int) ([]*models.ParseErrorRecord, error) {
	return c.diagRepo.GetErrors(ctx, tenantID, limit)
}

// CreateOverride adds a logo override at the end of the tenant's evaluation
// order.
func (c *Core) CreateOverride(ctx context.Context, override *models.LogoOverride) error {
	if err := override.Validate(); err != nil {
		return err
	}
	if err := c.overrideRepo.Create(ctx, override); err != nil {
		return err
	}
	c.logger.Info("created logo override",
		"tenant_id", override.TenantID.String(),
		"match", override.Match,
		"is_pattern", override.IsPattern,
	)
	return nil
}

// GetOverrides returns the tenant's logo overrides in evaluation order.
func (c *Core) GetOverrides(ctx context.Context, tenantID models.ULID) ([]*models.LogoOverride, error) {
	return c.overrideRepo.GetByTenant(ctx, tenantID)
}

// UpdateOverride updates a tenant's logo override. The tenant must own the
// override; otherwise models.ErrOverrideNotFound is returned.
func (c *Core) UpdateOverride(ctx context.Context, tenantID models.ULID, override *models.LogoOverride) error {
	existing, err := c.overrideRepo.GetByID(ctx, override.ID)
	if err != nil {
		return err
	}
	if existing == nil || existing.TenantID != tenantID {
		return models.ErrOverrideNotFound
	}

	override.TenantID = tenantID
	override.Position = existing.Position
	if err := override.Validate(); err != nil {
		return err
	}
	return c.overrideRepo.Update(ctx, override)
}

// DeleteOverride deletes a tenant's logo override. The tenant must own the
// override; otherwise models.ErrOverrideNotFound is returned.
func (c *Core) DeleteOverride(ctx context.Context, tenantID models.ULID, id models.ULID) error {
	existing, err := c.overrideRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.TenantID != tenantID {
		return models.ErrOverrideNotFound
	}
	return c.overrideRepo.Delete(ctx, id)
}

// ResolveImage returns processed artwork bytes and their content type for a
// channel. Resolution falls back to a generated placeholder, so a missing
// or broken upstream image is not an error.
func (c *Core) ResolveImage(ctx context.Context, tenantID models.ULID, channelID string, kind models.ImageKind) ([]byte, string, error) {
	tenant, err := c.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}
	if tenant == nil {
		return nil, "", models.ErrTenantNotFound
	}

	entry, err := c.resolver.Resolve(ctx, tenant, channelID, kind)
	if err != nil {
		return nil, "", err
	}
	return entry.Data, entry.ContentType, nil
}

// ClearImageCache purges the tenant's cached artwork and returns how many
// entries were removed. The next resolution for each image re-runs the full
// fallback chain.
func (c *Core) ClearImageCache(ctx context.Context, tenantID models.ULID) (int64, error) {
	purged, err := c.cacheRepo.ClearTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	c.logger.Info("cleared image cache", "tenant_id", tenantID.String(), "purged", purged)
	return purged, nil
}

// TenantStatus describes one tenant's scheduling state.
type TenantStatus struct {
	TenantID models.ULID  `json:"tenant_id"`
	Name     string       `json:"name,omitempty"`
	Enabled  bool         `json:"enabled"`
	Running  bool         `json:"running"`
	LastRun  *models.Time `json:"last_run,omitempty"`
	NextRun  *time.Time   `json:"next_run,omitempty"`
}

// SchedulerStatus is the scheduler state plus per-tenant run information.
type SchedulerStatus struct {
	Scheduler scheduler.Status `json:"scheduler"`
	Tenants   []TenantStatus   `json:"tenants"`
}

// GetSchedulerStatus reports the scheduler's state and, per tenant, whether
// a cycle is in flight, when the last one ran and when the next fires.
func (c *Core) GetSchedulerStatus(ctx context.Context) (*SchedulerStatus, error) {
	tenants, err := c.tenantRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]TenantStatus, 0, len(tenants))
	for _, tenant := range tenants {
		status := TenantStatus{
			TenantID: tenant.ID,
			Name:     tenant.Name,
			Enabled:  tenant.IsEnabled(),
			Running:  c.scheduler.IsRunning(tenant.ID),
			LastRun:  tenant.LastRunAt,
		}
		if tenant.IsEnabled() {
			if next, err := c.scheduler.NextRun(tenant); err == nil {
				status.NextRun = &next
			}
		}
		statuses = append(statuses, status)
	}

	return &SchedulerStatus{
		Scheduler: c.scheduler.GetStatus(),
		Tenants:   statuses,
	}, nil
}

// clampPage normalises pagination inputs.
func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}
