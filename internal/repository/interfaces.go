// Package repository defines data access interfaces for feedarr entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"
	"time"

	"github.com/feedarr/feedarr/internal/models"
)

// ChannelQuery filters and paginates snapshot channel reads.
type ChannelQuery struct {
	// Search filters by case-folded substring match on name and channel ID.
	Search string
	// Group filters by exact group title.
	Group string
	// Now is the reference time for event-channel expiry filtering.
	// Zero means no expiry filtering.
	Now time.Time
	// Offset and Limit paginate. Limit <= 0 means no limit.
	Offset int
	Limit  int
}

// EventQuery filters and paginates snapshot guide reads.
type EventQuery struct {
	// ChannelID restricts results to one channel when non-empty.
	ChannelID string
	// Search filters by case-folded substring match on title and channel ID.
	Search string
	// From/Until bound the event start time when non-zero.
	From  time.Time
	Until time.Time
	// Offset and Limit paginate. Limit <= 0 means no limit.
	Offset int
	Limit  int
}

// Snapshot is the replacement dataset handed to PublishSnapshot.
type Snapshot struct {
	Channels []*models.Channel
	Events   []*models.EPGEvent
	History  *models.ParseHistoryEntry
}

// TenantRepository defines operations for tenant persistence.
type TenantRepository interface {
	// Create creates a new tenant.
	Create(ctx context.Context, tenant *models.Tenant) error
	// GetByID retrieves a tenant by ID. Returns nil when not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Tenant, error)
	// GetByToken retrieves a tenant by its secret token. Returns nil when not found.
	GetByToken(ctx context.Context, token string) (*models.Tenant, error)
	// GetAll retrieves all tenants.
	GetAll(ctx context.Context) ([]*models.Tenant, error)
	// GetEnabled retrieves all enabled tenants.
	GetEnabled(ctx context.Context) ([]*models.Tenant, error)
	// Update updates an existing tenant.
	Update(ctx context.Context, tenant *models.Tenant) error
	// RecordFailure stamps the last run as failed without touching the snapshot.
	RecordFailure(ctx context.Context, id models.ULID, ranAt time.Time, message string) error
	// Delete deletes a tenant and all dependent rows.
	Delete(ctx context.Context, id models.ULID) error
}

// SnapshotRepository defines operations for a tenant's published dataset.
type SnapshotRepository interface {
	// Publish atomically replaces the tenant's channels and events, bumps
	// the snapshot version, stamps the run bookkeeping and appends the
	// history entry, all in one transaction. Readers observe either the
	// previous snapshot or the new one, never a mix.
	Publish(ctx context.Context, tenantID models.ULID, snap Snapshot) error
	// GetChannels retrieves snapshot channels with filtering and pagination.
	GetChannels(ctx context.Context, tenantID models.ULID, q ChannelQuery) ([]*models.Channel, int64, error)
	// GetChannelByID retrieves one snapshot channel. Returns nil when not found.
	GetChannelByID(ctx context.Context, tenantID models.ULID, channelID string) (*models.Channel, error)
	// GetEvents retrieves snapshot guide events with filtering and pagination.
	GetEvents(ctx context.Context, tenantID models.ULID, q EventQuery) ([]*models.EPGEvent, int64, error)
}

// OverrideRepository defines operations for logo override persistence.
type OverrideRepository interface {
	// Create appends an override at the end of the tenant's evaluation order.
	Create(ctx context.Context, override *models.LogoOverride) error
	// GetByID retrieves an override by ID. Returns nil when not found.
	GetByID(ctx context.Context, id models.ULID) (*models.LogoOverride, error)
	// GetByTenant retrieves a tenant's overrides in evaluation order.
	GetByTenant(ctx context.Context, tenantID models.ULID) ([]*models.LogoOverride, error)
	// Update updates an existing override.
	Update(ctx context.Context, override *models.LogoOverride) error
	// Delete deletes an override by ID.
	Delete(ctx context.Context, id models.ULID) error
}

// DiagnosticsRepository defines operations for the bounded per-tenant
// parse history and error logs.
type DiagnosticsRepository interface {
	// GetHistory retrieves the most recent history entries, newest first.
	GetHistory(ctx context.Context, tenantID models.ULID, limit int) ([]*models.ParseHistoryEntry, error)
	// AppendHistory records a cycle outcome outside of snapshot publication
	// (failed cycles) and prunes beyond the retention bound.
	AppendHistory(ctx context.Context, entry *models.ParseHistoryEntry) error
	// AppendErrors records cycle errors and prunes beyond the retention bound.
	AppendErrors(ctx context.Context, records []*models.ParseErrorRecord) error
	// GetErrors retrieves the most recent error records, newest first.
	GetErrors(ctx context.Context, tenantID models.ULID, limit int) ([]*models.ParseErrorRecord, error)
}

// ImageCacheRepository defines operations for processed image caching.
type ImageCacheRepository interface {
	// Get retrieves a cached image. Returns nil when not cached.
	Get(ctx context.Context, tenantID models.ULID, channelID string, kind models.ImageKind) (*models.ImageCacheEntry, error)
	// Put stores a processed image, replacing any previous entry for the key.
	Put(ctx context.Context, entry *models.ImageCacheEntry) error
	// ClearTenant removes all cached images for a tenant and returns the
	// number of entries purged.
	ClearTenant(ctx context.Context, tenantID models.ULID) (int64, error)
}
