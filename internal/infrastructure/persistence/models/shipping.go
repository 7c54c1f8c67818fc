package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/fulfillment/backend/internal/domain/shipping"
)

// ViolationModel is the persistence model for shipping rule violations
type ViolationModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID              `gorm:"type:uuid;not null;index:idx_violations_order"`
	Kind       shipping.ViolationKind `gorm:"type:varchar(30);not null;index:idx_violations_order"`
	Expected   string                 `gorm:"type:varchar(100)"`
	Actual     string                 `gorm:"type:varchar(100)"`
	DetectedAt time.Time              `gorm:"not null"`
	ResolvedAt *time.Time             `gorm:"index:idx_violations_resolved"`
	CreatedAt  time.Time              `gorm:"not null"`
	UpdatedAt  time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ViolationModel) TableName() string {
	return "shipping_violations"
}

// ToDomain converts the persistence model to a domain Violation
func (m *ViolationModel) ToDomain() *shipping.Violation {
	return &shipping.Violation{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrderID:    m.OrderID,
		Kind:       m.Kind,
		Expected:   m.Expected,
		Actual:     m.Actual,
		DetectedAt: m.DetectedAt,
		ResolvedAt: m.ResolvedAt,
	}
}

// FromDomain populates the persistence model from a domain Violation
func (m *ViolationModel) FromDomain(v *shipping.Violation) {
	m.ID = v.ID
	m.OrderID = v.OrderID
	m.Kind = v.Kind
	m.Expected = v.Expected
	m.Actual = v.Actual
	m.DetectedAt = v.DetectedAt
	m.ResolvedAt = v.ResolvedAt
	m.CreatedAt = v.CreatedAt
	m.UpdatedAt = v.UpdatedAt
}

// ViolationModelFromDomain creates a new persistence model from a domain
// Violation
func ViolationModelFromDomain(v *shipping.Violation) *ViolationModel {
	m := &ViolationModel{}
	m.FromDomain(v)
	return m
}
