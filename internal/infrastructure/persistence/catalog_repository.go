package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
)

// ---------------------------------------------------------------------------
// Bundle definitions
// ---------------------------------------------------------------------------

// GormBundleDefinitionRepository implements BundleDefinitionRepository using GORM
type GormBundleDefinitionRepository struct {
	db *gorm.DB
}

// NewGormBundleDefinitionRepository creates a new GormBundleDefinitionRepository
func NewGormBundleDefinitionRepository(db *gorm.DB) *GormBundleDefinitionRepository {
	return &GormBundleDefinitionRepository{db: db}
}

// FindByCode finds a bundle definition by composite code, active or not
func (r *GormBundleDefinitionRepository) FindByCode(ctx context.Context, bundleCode string) (*catalog.BundleDefinition, error) {
	var model models.BundleDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("bundle_code = ?", bundleCode).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all bundle definitions matching the filter
func (r *GormBundleDefinitionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.BundleDefinition, error) {
	var defModels []models.BundleDefinitionModel
	query := r.db.WithContext(ctx).Model(&models.BundleDefinitionModel{})
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("is_active = ?", active)
	}
	query = applyPagination(query, filter).Order("bundle_code ASC")

	if err := query.Find(&defModels).Error; err != nil {
		return nil, err
	}

	defs := make([]catalog.BundleDefinition, len(defModels))
	for i, model := range defModels {
		defs[i] = *model.ToDomain()
	}
	return defs, nil
}

// Save creates or updates a bundle definition
func (r *GormBundleDefinitionRepository) Save(ctx context.Context, def *catalog.BundleDefinition) error {
	model := models.BundleDefinitionModelFromDomain(def)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a bundle definition
func (r *GormBundleDefinitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BundleDefinitionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBundleDefinitionRepository implements BundleDefinitionRepository
var _ catalog.BundleDefinitionRepository = (*GormBundleDefinitionRepository)(nil)

// ---------------------------------------------------------------------------
// Lot mappings
// ---------------------------------------------------------------------------

// GormLotMappingRepository implements LotMappingRepository using GORM
type GormLotMappingRepository struct {
	db *gorm.DB
}

// NewGormLotMappingRepository creates a new GormLotMappingRepository
func NewGormLotMappingRepository(db *gorm.DB) *GormLotMappingRepository {
	return &GormLotMappingRepository{db: db}
}

// FindLatestActive returns the most recently created active lot mapping
// for the base code, or shared.ErrNotFound if none is active
func (r *GormLotMappingRepository) FindLatestActive(ctx context.Context, baseCode string) (*catalog.LotMapping, error) {
	var model models.LotMappingModel
	if err := r.db.WithContext(ctx).
		Where("base_code = ? AND active = ?", baseCode, true).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByBaseCode returns all lot mappings for a base code, newest first
func (r *GormLotMappingRepository) FindByBaseCode(ctx context.Context, baseCode string) ([]catalog.LotMapping, error) {
	var mappingModels []models.LotMappingModel
	if err := r.db.WithContext(ctx).
		Where("base_code = ?", baseCode).
		Order("created_at DESC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}

	mappings := make([]catalog.LotMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings, nil
}

// Save creates or updates a lot mapping
func (r *GormLotMappingRepository) Save(ctx context.Context, mapping *catalog.LotMapping) error {
	model := models.LotMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a lot mapping
func (r *GormLotMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LotMappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLotMappingRepository implements LotMappingRepository
var _ catalog.LotMappingRepository = (*GormLotMappingRepository)(nil)
