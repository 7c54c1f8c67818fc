package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fulfillment/backend/internal/domain/flags"
	"github.com/fulfillment/backend/internal/domain/shared"
)

// FlagModel is the persistence model for workflow flags
type FlagModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key"`
	Key       string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_flags_key"`
	Type      flags.FlagType `gorm:"type:varchar(20);not null"`
	Value     string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FlagModel) TableName() string {
	return "workflow_flags"
}

// ToDomain converts the persistence model to a domain Flag
func (m *FlagModel) ToDomain() *flags.Flag {
	return &flags.Flag{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Key:   m.Key,
		Type:  m.Type,
		Value: m.Value,
	}
}

// FromDomain populates the persistence model from a domain Flag
func (m *FlagModel) FromDomain(f *flags.Flag) {
	m.ID = f.ID
	m.Key = f.Key
	m.Type = f.Type
	m.Value = f.Value
	m.CreatedAt = f.CreatedAt
	m.UpdatedAt = f.UpdatedAt
}

// FlagModelFromDomain creates a new persistence model from a domain Flag
func FlagModelFromDomain(f *flags.Flag) *FlagModel {
	m := &FlagModel{}
	m.FromDomain(f)
	return m
}
