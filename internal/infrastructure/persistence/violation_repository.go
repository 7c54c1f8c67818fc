package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shipping"
	"github.com/fulfillment/backend/internal/infrastructure/persistence/models"
)

// GormViolationRepository implements ViolationRepository using GORM
type GormViolationRepository struct {
	db *gorm.DB
}

// NewGormViolationRepository creates a new GormViolationRepository
func NewGormViolationRepository(db *gorm.DB) *GormViolationRepository {
	return &GormViolationRepository{db: db}
}

// FindByID finds a violation by id
func (r *GormViolationRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Violation, error) {
	var model models.ViolationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenByOrderAndKind finds the open violation for (order, kind), or
// shared.ErrNotFound if none is open
func (r *GormViolationRepository) FindOpenByOrderAndKind(ctx context.Context, orderID uuid.UUID, kind shipping.ViolationKind) (*shipping.Violation, error) {
	var model models.ViolationModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND kind = ? AND resolved_at IS NULL", orderID, kind).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds violations matching the filter
func (r *GormViolationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]shipping.Violation, error) {
	var violationModels []models.ViolationModel
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ViolationModel{}), filter)
	query = applyPagination(query, filter).Order("detected_at DESC")

	if err := query.Find(&violationModels).Error; err != nil {
		return nil, err
	}

	violations := make([]shipping.Violation, len(violationModels))
	for i, model := range violationModels {
		violations[i] = *model.ToDomain()
	}
	return violations, nil
}

// Count counts violations matching the filter
func (r *GormViolationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.ViolationModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a violation
func (r *GormViolationRepository) Save(ctx context.Context, violation *shipping.Violation) error {
	model := models.ViolationModelFromDomain(violation)
	return r.db.WithContext(ctx).Save(model).Error
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormViolationRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "kind":
			query = query.Where("kind = ?", value)
		case "open":
			if value == true {
				query = query.Where("resolved_at IS NULL")
			} else {
				query = query.Where("resolved_at IS NOT NULL")
			}
		}
	}
	return query
}

// Ensure GormViolationRepository implements ViolationRepository
var _ shipping.ViolationRepository = (*GormViolationRepository)(nil)
