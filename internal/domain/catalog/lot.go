package catalog

import (
	"context"
	"errors"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// LotMapping pairs a base product code with a manufacturing lot identifier.
// Multiple active lots per base code are permitted; resolution picks the
// most recently created active lot.
type LotMapping struct {
	shared.BaseEntity
	// BaseCode is the base product code the lot applies to
	BaseCode string
	// Lot is the manufacturing lot identifier
	Lot string
	// Active controls whether the lot is eligible for resolution
	Active bool
}

// NewLotMapping creates a new active lot mapping
func NewLotMapping(baseCode, lot string) (*LotMapping, error) {
	if baseCode == "" {
		return nil, shared.NewDomainError("INVALID_BASE_CODE", "Base product code cannot be empty")
	}
	if lot == "" {
		return nil, shared.NewDomainError("INVALID_LOT", "Lot identifier cannot be empty")
	}
	return &LotMapping{
		BaseEntity: shared.NewBaseEntity(),
		BaseCode:   baseCode,
		Lot:        lot,
		Active:     true,
	}, nil
}

// Deactivate marks the lot mapping as inactive
func (m *LotMapping) Deactivate() {
	m.Active = false
	m.Touch()
}

// LotResolver resolves the current manufacturing lot for a base product
// code. Resolution must be deterministic for a fixed database state; any
// caching in front of an implementation must expire within the
// reconciliation interval.
type LotResolver interface {
	// Resolve returns the most recently created active lot for the base
	// code, or ok=false if no active lot exists (soft failure: the caller
	// proceeds with the base code unresolved).
	Resolve(ctx context.Context, baseCode string) (lot string, ok bool, err error)
}

// RepositoryLotResolver resolves lots directly against the repository
type RepositoryLotResolver struct {
	lots LotMappingRepository
}

// NewRepositoryLotResolver creates a resolver backed by the lot repository
func NewRepositoryLotResolver(lots LotMappingRepository) *RepositoryLotResolver {
	return &RepositoryLotResolver{lots: lots}
}

// Resolve implements LotResolver
func (r *RepositoryLotResolver) Resolve(ctx context.Context, baseCode string) (string, bool, error) {
	mapping, err := r.lots.FindLatestActive(ctx, baseCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return mapping.Lot, true, nil
}
