package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/integration"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// SyncWatermarkModel is the persistence model for workflow sync watermarks
type SyncWatermarkModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Workflow        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_watermarks_workflow"`
	LastProcessedAt time.Time `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncWatermarkModel) TableName() string {
	return "sync_watermarks"
}

// ToDomain converts the persistence model to a domain SyncWatermark
func (m *SyncWatermarkModel) ToDomain() *integration.SyncWatermark {
	return &integration.SyncWatermark{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Workflow:        m.Workflow,
		LastProcessedAt: m.LastProcessedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncWatermark
func (m *SyncWatermarkModel) FromDomain(w *integration.SyncWatermark) {
	m.ID = w.ID
	m.Workflow = w.Workflow
	m.LastProcessedAt = w.LastProcessedAt
	m.CreatedAt = w.CreatedAt
	m.UpdatedAt = w.UpdatedAt
}

// SyncWatermarkModelFromDomain creates a new persistence model from a domain
// SyncWatermark
func SyncWatermarkModelFromDomain(w *integration.SyncWatermark) *SyncWatermarkModel {
	m := &SyncWatermarkModel{}
	m.FromDomain(w)
	return m
}
