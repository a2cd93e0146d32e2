package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feedarr/feedarr/internal/models"
)

func setupOverrideTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.LogoOverride{})
	require.NoError(t, err)

	return db
}

func TestOverrideRepo_Create_AssignsPositions(t *testing.T) {
	db := setupOverrideTestDB(t)
	repo := NewOverrideRepository(db)
	ctx := context.Background()
	tenantID := models.NewULID()

	first := &models.LogoOverride{
		TenantID:  tenantID,
		Match:     "news1.uk",
		TargetURL: "http://example.com/news1.png",
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, 0, first.Position)

	second := &models.LogoOverride{
		TenantID:  tenantID,
		Match:     "^sky\\.",
		IsPattern: true,
		TargetURL: "http://example.com/sky.png",
	}
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, 1, second.Position)

	// A different tenant starts its own ordering.
	other := &models.LogoOverride{
		TenantID:  models.NewULID(),
		Match:     "view1.us",
		TargetURL: "http://example.com/view1.png",
	}
	require.NoError(t, repo.Create(ctx, other))
	assert.Equal(t, 0, other.Position)
}

func TestOverrideRepo_GetByTenant_Ordered(t *testing.T) {
	db := setupOverrideTestDB(t)
	repo := NewOverrideRepository(db)
	ctx := context.Background()
	tenantID := models.NewULID()

	for _, match := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Create(ctx, &models.LogoOverride{
			TenantID:  tenantID,
			Match:     match,
			TargetURL: "http://example.com/" + match + ".png",
		}))
	}

	overrides, err := repo.GetByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, overrides, 3)
	assert.Equal(t, "first", overrides[0].Match)
	assert.Equal(t, "second", overrides[1].Match)
	assert.Equal(t, "third", overrides[2].Match)
}

func TestOverrideRepo_Create_InvalidPattern(t *testing.T) {
	db := setupOverrideTestDB(t)
	repo := NewOverrideRepository(db)
	ctx := context.Background()

	override := &models.LogoOverride{
		TenantID:  models.NewULID(),
		Match:     "[unterminated",
		IsPattern: true,
		TargetURL: "http://example.com/x.png",
	}
	err := repo.Create(ctx, override)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidPattern)
}

func TestOverrideRepo_UpdateAndDelete(t *testing.T) {
	db := setupOverrideTestDB(t)
	repo := NewOverrideRepository(db)
	ctx := context.Background()

	override := &models.LogoOverride{
		TenantID:  models.NewULID(),
		Match:     "news1.uk",
		TargetURL: "http://example.com/old.png",
	}
	require.NoError(t, repo.Create(ctx, override))

	override.TargetURL = "http://example.com/new.png"
	require.NoError(t, repo.Update(ctx, override))

	found, err := repo.GetByID(ctx, override.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "http://example.com/new.png", found.TargetURL)

	require.NoError(t, repo.Delete(ctx, override.ID))
	found, err = repo.GetByID(ctx, override.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
