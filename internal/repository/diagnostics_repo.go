package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/feedarr/feedarr/internal/models"
)

// diagnosticsRepo implements DiagnosticsRepository using GORM.
type diagnosticsRepo struct {
	db *gorm.DB
}

// NewDiagnosticsRepository creates a new DiagnosticsRepository.
func NewDiagnosticsRepository(db *gorm.DB) *diagnosticsRepo {
	return &diagnosticsRepo{db: db}
}

// GetHistory retrieves the most recent history entries, newest first.
func (r *diagnosticsRepo) GetHistory(ctx context.Context, tenantID models.ULID, limit int) ([]*models.ParseHistoryEntry, error) {
	if limit <= 0 || limit > models.ParseHistoryRetention {
		limit = models.ParseHistoryRetention
	}
	var entries []*models.ParseHistoryEntry
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("started_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("getting parse history: %w", err)
	}
	return entries, nil
}

// AppendHistory records a cycle outcome and prunes beyond the retention
// bound. Successful cycles are recorded by snapshot publication instead;
// this path is for cycles that never reached publish.
func (r *diagnosticsRepo) AppendHistory(ctx context.Context, entry *models.ParseHistoryEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return pruneHistory(tx, entry.TenantID, models.ParseHistoryRetention)
	})
	if err != nil {
		return fmt.Errorf("appending parse history: %w", err)
	}
	return nil
}

// AppendErrors records cycle errors and prunes beyond the retention bound.
func (r *diagnosticsRepo) AppendErrors(ctx context.Context, records []*models.ParseErrorRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(records).Error; err != nil {
			return err
		}

		// All records in one append belong to the same tenant.
		tenantID := records[0].TenantID
		sub := tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.ParseErrorRecord{}).
			Select("id").
			Where("tenant_id = ?", tenantID).
			Order("occurred_at DESC").
			Limit(models.ParseErrorRetention)
		return tx.Where("tenant_id = ? AND id NOT IN (?)", tenantID, sub).
			Delete(&models.ParseErrorRecord{}).Error
	})
	if err != nil {
		return fmt.Errorf("appending parse errors: %w", err)
	}
	return nil
}

// GetErrors retrieves the most recent error records, newest first.
func (r *diagnosticsRepo) GetErrors(ctx context.Context, tenantID models.ULID, limit int) ([]*models.ParseErrorRecord, error) {
	if limit <= 0 || limit > models.ParseErrorRetention {
		limit = models.ParseErrorRetention
	}
	var records []*models.ParseErrorRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("getting parse errors: %w", err)
	}
	return records, nil
}

// Ensure diagnosticsRepo implements DiagnosticsRepository at compile time.
var _ DiagnosticsRepository = (*diagnosticsRepo)(nil)
