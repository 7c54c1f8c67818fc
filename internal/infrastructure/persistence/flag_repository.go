package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fulfillment/backend/internal/domain/flags"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
)

// GormFlagRepository implements flags.Repository using GORM
type GormFlagRepository struct {
	db *gorm.DB
}

// NewGormFlagRepository creates a new GormFlagRepository
func NewGormFlagRepository(db *gorm.DB) *GormFlagRepository {
	return &GormFlagRepository{db: db}
}

// FindByKey finds a flag by key, or shared.ErrNotFound if absent
func (r *GormFlagRepository) FindByKey(ctx context.Context, key string) (*flags.Flag, error) {
	var model models.FlagModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all flags
func (r *GormFlagRepository) FindAll(ctx context.Context) ([]flags.Flag, error) {
	var flagModels []models.FlagModel
	if err := r.db.WithContext(ctx).
		Order("key ASC").
		Find(&flagModels).Error; err != nil {
		return nil, err
	}

	result := make([]flags.Flag, len(flagModels))
	for i, model := range flagModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// Save upserts a flag, keyed by flag key
func (r *GormFlagRepository) Save(ctx context.Context, flag *flags.Flag) error {
	model := models.FlagModelFromDomain(flag)

	result := r.db.WithContext(ctx).
		Model(&models.FlagModel{}).
		Where("key = ?", model.Key).
		Updates(map[string]any{
			"type":       model.Type,
			"value":      model.Value,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "value", "updated_at"}),
		}).
		Create(model).Error
}

// Ensure GormFlagRepository implements flags.Repository
var _ flags.Repository = (*GormFlagRepository)(nil)
