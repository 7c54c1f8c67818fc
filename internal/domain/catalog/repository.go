package catalog

import (
	"context"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BundleDefinitionRepository defines persistence for bundle definitions
type BundleDefinitionRepository interface {
	// FindByCode finds a bundle definition by composite code, active or not
	FindByCode(ctx context.Context, bundleCode string) (*BundleDefinition, error)

	// FindAll finds all bundle definitions matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]BundleDefinition, error)

	// Save creates or updates a bundle definition
	Save(ctx context.Context, def *BundleDefinition) error

	// Delete deletes a bundle definition
	Delete(ctx context.Context, id uuid.UUID) error
}

// LotMappingRepository defines persistence for lot mappings
type LotMappingRepository interface {
	// FindLatestActive returns the most recently created active lot mapping
	// for the base code, or shared.ErrNotFound if none is active
	FindLatestActive(ctx context.Context, baseCode string) (*LotMapping, error)

	// FindByBaseCode returns all lot mappings for a base code, newest first
	FindByBaseCode(ctx context.Context, baseCode string) ([]LotMapping, error)

	// Save creates or updates a lot mapping
	Save(ctx context.Context, mapping *LotMapping) error

	// Delete deletes a lot mapping
	Delete(ctx context.Context, id uuid.UUID) error
}
