package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.BundleDefinitionModel{}, &models.LotMappingModel{})
	require.NoError(t, err)

	return db
}

func TestGormBundleDefinitionRepository(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormBundleDefinitionRepository(db)
	ctx := context.Background()

	t.Run("round-trips components", func(t *testing.T) {
		def, err := catalog.NewBundleDefinition("BNDL-A", []catalog.BundleComponent{
			{ComponentCode: "SKU-1", Multiplier: 2},
			{ComponentCode: "SKU-2", Multiplier: 1},
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, def))

		found, err := repo.FindByCode(ctx, "BNDL-A")
		require.NoError(t, err)
		assert.Equal(t, def.ID, found.ID)
		require.Len(t, found.Components, 2)
		assert.Equal(t, "SKU-1", found.Components[0].ComponentCode)
		assert.Equal(t, 2, found.Components[0].Multiplier)
		assert.True(t, found.IsActive)
	})

	t.Run("finds inactive definitions by code", func(t *testing.T) {
		def, err := catalog.NewBundleDefinition("BNDL-B", []catalog.BundleComponent{
			{ComponentCode: "SKU-3", Multiplier: 1},
		})
		require.NoError(t, err)
		def.Deactivate()
		require.NoError(t, repo.Save(ctx, def))

		found, err := repo.FindByCode(ctx, "BNDL-B")
		require.NoError(t, err)
		assert.False(t, found.IsActive)
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		_, err := repo.FindByCode(ctx, "BNDL-MISSING")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("filters by active", func(t *testing.T) {
		filter := shared.Filter{Filters: map[string]interface{}{"active": true}}
		found, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "BNDL-A", found[0].BundleCode)
	})

	t.Run("deletes by id", func(t *testing.T) {
		def, err := catalog.NewBundleDefinition("BNDL-C", nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, def))

		require.NoError(t, repo.Delete(ctx, def.ID))
		_, err = repo.FindByCode(ctx, "BNDL-C")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, def.ID), shared.ErrNotFound)
	})
}

func TestGormLotMappingRepository_FindLatestActive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormLotMappingRepository(db)
	ctx := context.Background()

	saveAt := func(t *testing.T, baseCode, lot string, createdAt time.Time, active bool) *catalog.LotMapping {
		t.Helper()
		mapping, err := catalog.NewLotMapping(baseCode, lot)
		require.NoError(t, err)
		mapping.CreatedAt = createdAt
		mapping.Active = active
		require.NoError(t, repo.Save(ctx, mapping))
		return mapping
	}

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	saveAt(t, "SKU-17612", "L250100", base, true)
	newest := saveAt(t, "SKU-17612", "L250300", base.Add(48*time.Hour), true)
	saveAt(t, "SKU-17612", "L250400", base.Add(96*time.Hour), false)
	saveAt(t, "SKU-9981", "L990000", base, false)

	t.Run("picks the newest active lot", func(t *testing.T) {
		found, err := repo.FindLatestActive(ctx, "SKU-17612")
		require.NoError(t, err)
		assert.Equal(t, newest.ID, found.ID)
		assert.Equal(t, "L250300", found.Lot)
	})

	t.Run("returns ErrNotFound when only inactive lots exist", func(t *testing.T) {
		_, err := repo.FindLatestActive(ctx, "SKU-9981")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns ErrNotFound for unmapped base code", func(t *testing.T) {
		_, err := repo.FindLatestActive(ctx, "SKU-UNMAPPED")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists all lots for a base code newest first", func(t *testing.T) {
		found, err := repo.FindByBaseCode(ctx, "SKU-17612")
		require.NoError(t, err)
		require.Len(t, found, 3)
		assert.Equal(t, "L250400", found[0].Lot)
		assert.Equal(t, "L250100", found[2].Lot)
	})
}
