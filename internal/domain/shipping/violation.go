package shipping

import (
	"context"
	"time"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ViolationKind classifies a shipping rule violation
type ViolationKind string

const (
	// ViolationKindCarrierMismatch indicates the actual carrier diverges
	// from the one expected for the order's shipment class
	ViolationKindCarrierMismatch ViolationKind = "CARRIER_MISMATCH"
	// ViolationKindServiceMismatch indicates the actual service diverges
	// from the one expected for the order's shipment class
	ViolationKindServiceMismatch ViolationKind = "SERVICE_MISMATCH"
)

// IsValid returns true if the kind is valid
func (k ViolationKind) IsValid() bool {
	switch k {
	case ViolationKindCarrierMismatch, ViolationKindServiceMismatch:
		return true
	}
	return false
}

// String returns the string representation of ViolationKind
func (k ViolationKind) String() string {
	return string(k)
}

// Violation records an advisory mismatch between expected and actual
// shipping classification for an order. It never blocks processing and is
// closed only by an explicit resolve action. At most one violation per
// (order, kind) is open at a time.
type Violation struct {
	shared.BaseEntity
	OrderID    uuid.UUID
	Kind       ViolationKind
	Expected   string
	Actual     string
	DetectedAt time.Time
	ResolvedAt *time.Time
}

// NewViolation creates an open violation for an order
func NewViolation(orderID uuid.UUID, kind ViolationKind, expected, actual string) (*Violation, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_VIOLATION_KIND", "Unknown violation kind")
	}
	return &Violation{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		Kind:       kind,
		Expected:   expected,
		Actual:     actual,
		DetectedAt: time.Now(),
	}, nil
}

// IsResolved returns true if the violation has been resolved
func (v *Violation) IsResolved() bool {
	return v.ResolvedAt != nil
}

// Resolve closes the violation
func (v *Violation) Resolve() error {
	if v.IsResolved() {
		return shared.ErrInvalidState
	}
	now := time.Now()
	v.ResolvedAt = &now
	v.Touch()
	return nil
}

// Observe refreshes the expected/actual values of a still-open violation
// without creating a duplicate row
func (v *Violation) Observe(expected, actual string) error {
	if v.IsResolved() {
		return shared.ErrInvalidState
	}
	v.Expected = expected
	v.Actual = actual
	v.Touch()
	return nil
}

// ViolationRepository defines persistence for shipping violations
type ViolationRepository interface {
	// FindByID finds a violation by id
	FindByID(ctx context.Context, id uuid.UUID) (*Violation, error)

	// FindOpenByOrderAndKind finds the open violation for (order, kind), or
	// shared.ErrNotFound if none is open
	FindOpenByOrderAndKind(ctx context.Context, orderID uuid.UUID, kind ViolationKind) (*Violation, error)

	// FindAll finds violations matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Violation, error)

	// Count counts violations matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a violation
	Save(ctx context.Context, violation *Violation) error
}
