package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/feedarr/feedarr/internal/models"
)

// tenantRepo implements TenantRepository using GORM.
type tenantRepo struct {
	db *gorm.DB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *gorm.DB) *tenantRepo {
	return &tenantRepo{db: db}
}

// Create creates a new tenant.
func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	if err := r.db.WithContext(ctx).Create(tenant).Error; err != nil {
		return fmt.Errorf("creating tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID.
func (r *tenantRepo) GetByID(ctx context.Context, id models.ULID) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting tenant by ID: %w", err)
	}
	return &tenant, nil
}

// GetByToken retrieves a tenant by its secret token.
func (r *tenantRepo) GetByToken(ctx context.Context, token string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&tenant).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting tenant by token: %w", err)
	}
	return &tenant, nil
}

// GetAll retrieves all tenants.
func (r *tenantRepo) GetAll(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("getting all tenants: %w", err)
	}
	return tenants, nil
}

// GetEnabled retrieves all enabled tenants.
func (r *tenantRepo) GetEnabled(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("getting enabled tenants: %w", err)
	}
	return tenants, nil
}

// Update updates an existing tenant.
func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	if err := r.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return fmt.Errorf("updating tenant: %w", err)
	}
	return nil
}

// RecordFailure stamps the last run as failed without touching the snapshot.
// Hooks are skipped: this is a partial counter update, not a tenant edit.
func (r *tenantRepo) RecordFailure(ctx context.Context, id models.ULID, ranAt time.Time, message string) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{SkipHooks: true}).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_run_at": ranAt,
			"last_error":  message,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("recording tenant failure: %w", err)
	}
	return nil
}

// Delete deletes a tenant and all dependent rows.
func (r *tenantRepo) Delete(ctx context.Context, id models.ULID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.Channel{}, &models.EPGEvent{}, &models.LogoOverride{},
			&models.ParseHistoryEntry{}, &models.ParseErrorRecord{}, &models.ImageCacheEntry{},
		} {
			if err := tx.Where("tenant_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&models.Tenant{}).Error
	})
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	return nil
}

// Ensure tenantRepo implements TenantRepository at compile time.
var _ TenantRepository = (*tenantRepo)(nil)
