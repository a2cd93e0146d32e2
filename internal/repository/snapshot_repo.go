package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/feedarr/feedarr/internal/models"
)

// eventChannelGrace is how long an event channel stays visible past its
// detected start time before expiry filtering hides it.
const eventChannelGrace = 4 * time.Hour

// snapshotRepo implements SnapshotRepository using GORM.
type snapshotRepo struct {
	db        *gorm.DB
	batchSize int
}

// NewSnapshotRepository creates a new SnapshotRepository. batchSize bounds
// the rows per INSERT during publish; <= 0 uses a sensible default.
func NewSnapshotRepository(db *gorm.DB, batchSize int) *snapshotRepo {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &snapshotRepo{db: db, batchSize: batchSize}
}

// Publish atomically replaces the tenant's channels and events.
//
// Everything happens in a single transaction: delete the previous snapshot,
// batch-insert the replacement, bump the snapshot version and run
// bookkeeping, append the history entry and prune history past retention.
// A reader on another connection sees the old rows until commit.
func (r *snapshotRepo) Publish(ctx context.Context, tenantID models.ULID, snap Snapshot) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&models.Channel{}).Error; err != nil {
			return fmt.Errorf("deleting previous channels: %w", err)
		}
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&models.EPGEvent{}).Error; err != nil {
			return fmt.Errorf("deleting previous events: %w", err)
		}

		for i := range snap.Channels {
			snap.Channels[i].TenantID = tenantID
		}
		for i := range snap.Events {
			snap.Events[i].TenantID = tenantID
		}

		if len(snap.Channels) > 0 {
			if err := tx.CreateInBatches(snap.Channels, r.batchSize).Error; err != nil {
				return fmt.Errorf("inserting channels: %w", err)
			}
		}
		if len(snap.Events) > 0 {
			if err := tx.CreateInBatches(snap.Events, r.batchSize).Error; err != nil {
				return fmt.Errorf("inserting events: %w", err)
			}
		}

		now := time.Now()
		updates := map[string]any{
			"snapshot_version": gorm.Expr("snapshot_version + 1"),
			"channel_count":    len(snap.Channels),
			"event_count":      len(snap.Events),
			"last_run_at":      now,
			"last_success_at":  now,
			"last_error":       "",
			"updated_at":       now,
		}
		res := tx.Session(&gorm.Session{SkipHooks: true}).
			Model(&models.Tenant{}).
			Where("id = ?", tenantID).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("updating tenant snapshot state: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrTenantNotFound
		}

		if snap.History != nil {
			snap.History.TenantID = tenantID
			if err := tx.Create(snap.History).Error; err != nil {
				return fmt.Errorf("appending history: %w", err)
			}
			if err := pruneHistory(tx, tenantID, models.ParseHistoryRetention); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	return nil
}

// pruneHistory deletes history entries beyond the newest `keep` for a tenant.
func pruneHistory(tx *gorm.DB, tenantID models.ULID, keep int) error {
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&models.ParseHistoryEntry{}).
		Select("id").
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(keep)
	if err := tx.Where("tenant_id = ? AND id NOT IN (?)", tenantID, sub).
		Delete(&models.ParseHistoryEntry{}).Error; err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return nil
}

// GetChannels retrieves snapshot channels with filtering and pagination.
// Regular channels sort by name; event channels that started more than the
// grace period before q.Now are filtered out.
func (r *snapshotRepo) GetChannels(ctx context.Context, tenantID models.ULID, q ChannelQuery) ([]*models.Channel, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Channel{}).Where("tenant_id = ?", tenantID)

	if q.Search != "" {
		needle := "%" + strings.ToLower(q.Search) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(channel_id) LIKE ?", needle, needle)
	}
	if q.Group != "" {
		base = base.Where("group_title = ?", q.Group)
	}
	if !q.Now.IsZero() {
		cutoff := q.Now.Add(-eventChannelGrace)
		base = base.Where("is_event = ? OR event_start IS NULL OR event_start > ?", false, cutoff)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting channels: %w", err)
	}

	query := base.Order("name ASC").Offset(q.Offset)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var channels []*models.Channel
	if err := query.Find(&channels).Error; err != nil {
		return nil, 0, fmt.Errorf("getting channels: %w", err)
	}
	return channels, total, nil
}

// GetChannelByID retrieves one snapshot channel.
func (r *snapshotRepo) GetChannelByID(ctx context.Context, tenantID models.ULID, channelID string) (*models.Channel, error) {
	var channel models.Channel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND channel_id = ?", tenantID, channelID).
		First(&channel).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting channel: %w", err)
	}
	return &channel, nil
}

// GetEvents retrieves snapshot guide events with filtering and pagination.
func (r *snapshotRepo) GetEvents(ctx context.Context, tenantID models.ULID, q EventQuery) ([]*models.EPGEvent, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.EPGEvent{}).Where("tenant_id = ?", tenantID)

	if q.ChannelID != "" {
		base = base.Where("channel_id = ?", q.ChannelID)
	}
	if q.Search != "" {
		needle := "%" + strings.ToLower(q.Search) + "%"
		base = base.Where("LOWER(title) LIKE ? OR LOWER(channel_id) LIKE ?", needle, needle)
	}
	if !q.From.IsZero() {
		base = base.Where("start >= ?", q.From)
	}
	if !q.Until.IsZero() {
		base = base.Where("start < ?", q.Until)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting events: %w", err)
	}

	query := base.Order("start ASC, channel_id ASC").Offset(q.Offset)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var events []*models.EPGEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("getting events: %w", err)
	}
	return events, total, nil
}

// Ensure snapshotRepo implements SnapshotRepository at compile time.
var _ SnapshotRepository = (*snapshotRepo)(nil)
