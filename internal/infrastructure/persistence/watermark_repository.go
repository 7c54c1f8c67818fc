package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
)

// GormSyncWatermarkRepository implements SyncWatermarkRepository using GORM
type GormSyncWatermarkRepository struct {
	db *gorm.DB
}

// NewGormSyncWatermarkRepository creates a new GormSyncWatermarkRepository
func NewGormSyncWatermarkRepository(db *gorm.DB) *GormSyncWatermarkRepository {
	return &GormSyncWatermarkRepository{db: db}
}

// FindByWorkflow finds the watermark row for a workflow, or
// shared.ErrNotFound if the workflow has never completed a batch
func (r *GormSyncWatermarkRepository) FindByWorkflow(ctx context.Context, workflow string) (*integration.SyncWatermark, error) {
	var model models.SyncWatermarkModel
	if err := r.db.WithContext(ctx).
		Where("workflow = ?", workflow).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the watermark row, keyed by workflow name
func (r *GormSyncWatermarkRepository) Save(ctx context.Context, watermark *integration.SyncWatermark) error {
	model := models.SyncWatermarkModelFromDomain(watermark)

	result := r.db.WithContext(ctx).
		Model(&models.SyncWatermarkModel{}).
		Where("workflow = ?", model.Workflow).
		Updates(map[string]any{
			"last_processed_at": model.LastProcessedAt,
			"updated_at":        model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workflow"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_processed_at", "updated_at"}),
		}).
		Create(model).Error
}

// Ensure GormSyncWatermarkRepository implements SyncWatermarkRepository
var _ integration.SyncWatermarkRepository = (*GormSyncWatermarkRepository)(nil)
