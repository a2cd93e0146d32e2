package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/feedarr/feedarr/internal/models"
)

// overrideRepo implements OverrideRepository using GORM.
type overrideRepo struct {
	db *gorm.DB
}

// NewOverrideRepository creates a new OverrideRepository.
func NewOverrideRepository(db *gorm.DB) *overrideRepo {
	return &overrideRepo{db: db}
}

// Create appends an override at the end of the tenant's evaluation order.
func (r *overrideRepo) Create(ctx context.Context, override *models.LogoOverride) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos *int
		if err := tx.Model(&models.LogoOverride{}).
			Where("tenant_id = ?", override.TenantID).
			Select("MAX(position)").
			Scan(&maxPos).Error; err != nil {
			return err
		}
		if maxPos != nil {
			override.Position = *maxPos + 1
		}
		return tx.Create(override).Error
	})
	if err != nil {
		return fmt.Errorf("creating logo override: %w", err)
	}
	return nil
}

// GetByID retrieves an override by ID.
func (r *overrideRepo) GetByID(ctx context.Context, id models.ULID) (*models.LogoOverride, error) {
	var override models.LogoOverride
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&override).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting logo override: %w", err)
	}
	return &override, nil
}

// GetByTenant retrieves a tenant's overrides in evaluation order.
func (r *overrideRepo) GetByTenant(ctx context.Context, tenantID models.ULID) ([]*models.LogoOverride, error) {
	var overrides []*models.LogoOverride
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("position ASC").
		Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("getting logo overrides: %w", err)
	}
	return overrides, nil
}

// Update updates an existing override.
func (r *overrideRepo) Update(ctx context.Context, override *models.LogoOverride) error {
	if err := r.db.WithContext(ctx).Save(override).Error; err != nil {
		return fmt.Errorf("updating logo override: %w", err)
	}
	return nil
}

// Delete deletes an override by ID.
func (r *overrideRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.LogoOverride{}).Error; err != nil {
		return fmt.Errorf("deleting logo override: %w", err)
	}
	return nil
}

// Ensure overrideRepo implements OverrideRepository at compile time.
var _ OverrideRepository = (*overrideRepo)(nil)
