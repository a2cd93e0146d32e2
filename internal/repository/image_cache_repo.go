package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feedarr/feedarr/internal/models"
)

// imageCacheRepo implements ImageCacheRepository using GORM.
type imageCacheRepo struct {
	db *gorm.DB
}

// NewImageCacheRepository creates a new ImageCacheRepository.
func NewImageCacheRepository(db *gorm.DB) *imageCacheRepo {
	return &imageCacheRepo{db: db}
}

// Get retrieves a cached image.
func (r *imageCacheRepo) Get(ctx context.Context, tenantID models.ULID, channelID string, kind models.ImageKind) (*models.ImageCacheEntry, error) {
	var entry models.ImageCacheEntry
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND channel_id = ? AND kind = ? AND size_key = ?",
			tenantID, channelID, kind, kind.SizeKey()).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting cached image: %w", err)
	}
	return &entry, nil
}

// Put stores a processed image, replacing any previous entry for the key.
func (r *imageCacheRepo) Put(ctx context.Context, entry *models.ImageCacheEntry) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"}, {Name: "channel_id"}, {Name: "kind"}, {Name: "size_key"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"origin", "content_type", "data", "updated_at",
		}),
	}).Create(entry).Error; err != nil {
		return fmt.Errorf("storing cached image: %w", err)
	}
	return nil
}

// ClearTenant removes all cached images for a tenant.
func (r *imageCacheRepo) ClearTenant(ctx context.Context, tenantID models.ULID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&models.ImageCacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("clearing image cache: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ensure imageCacheRepo implements ImageCacheRepository at compile time.
var _ ImageCacheRepository = (*imageCacheRepo)(nil)
