package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/catalog"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// BundleDefinitionModel is the persistence model for bundle definitions
type BundleDefinitionModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	BundleCode     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_bundles_code"`
	ComponentsJSON string    `gorm:"type:jsonb;column:components"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BundleDefinitionModel) TableName() string {
	return "bundle_definitions"
}

// ToDomain converts the persistence model to a domain BundleDefinition
func (m *BundleDefinitionModel) ToDomain() *catalog.BundleDefinition {
	def := &catalog.BundleDefinition{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BundleCode: m.BundleCode,
		Components: make([]catalog.BundleComponent, 0),
		IsActive:   m.IsActive,
	}

	if m.ComponentsJSON != "" {
		var components []catalog.BundleComponent
		if err := json.Unmarshal([]byte(m.ComponentsJSON), &components); err == nil {
			def.Components = components
		}
	}
	return def
}

// FromDomain populates the persistence model from a domain BundleDefinition
func (m *BundleDefinitionModel) FromDomain(def *catalog.BundleDefinition) {
	m.ID = def.ID
	m.BundleCode = def.BundleCode
	m.IsActive = def.IsActive
	m.CreatedAt = def.CreatedAt
	m.UpdatedAt = def.UpdatedAt

	if len(def.Components) > 0 {
		if jsonBytes, err := json.Marshal(def.Components); err == nil {
			m.ComponentsJSON = string(jsonBytes)
		}
	} else {
		m.ComponentsJSON = "[]"
	}
}

// BundleDefinitionModelFromDomain creates a new persistence model from a
// domain BundleDefinition
func BundleDefinitionModelFromDomain(def *catalog.BundleDefinition) *BundleDefinitionModel {
	m := &BundleDefinitionModel{}
	m.FromDomain(def)
	return m
}

// LotMappingModel is the persistence model for lot mappings
type LotMappingModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BaseCode  string    `gorm:"type:varchar(100);not null;index:idx_lot_mappings_base_code"`
	Lot       string    `gorm:"type:varchar(100);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null;index:idx_lot_mappings_created_at"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LotMappingModel) TableName() string {
	return "lot_mappings"
}

// ToDomain converts the persistence model to a domain LotMapping
func (m *LotMappingModel) ToDomain() *catalog.LotMapping {
	return &catalog.LotMapping{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BaseCode: m.BaseCode,
		Lot:      m.Lot,
		Active:   m.Active,
	}
}

// FromDomain populates the persistence model from a domain LotMapping
func (m *LotMappingModel) FromDomain(mapping *catalog.LotMapping) {
	m.ID = mapping.ID
	m.BaseCode = mapping.BaseCode
	m.Lot = mapping.Lot
	m.Active = mapping.Active
	m.CreatedAt = mapping.CreatedAt
	m.UpdatedAt = mapping.UpdatedAt
}

// LotMappingModelFromDomain creates a new persistence model from a domain
// LotMapping
func LotMappingModelFromDomain(mapping *catalog.LotMapping) *LotMappingModel {
	m := &LotMappingModel{}
	m.FromDomain(mapping)
	return m
}
