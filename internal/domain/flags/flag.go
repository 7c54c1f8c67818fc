package flags

import (
	"context"
	"strconv"

	"github.com/fulfillment/backend/internal/domain/shared"
)

// FlagType is the value type of a workflow flag
type FlagType string

const (
	FlagTypeBoolean FlagType = "boolean"
	FlagTypeString  FlagType = "string"
)

// IsValid returns true if the flag type is valid
func (t FlagType) IsValid() bool {
	return t == FlagTypeBoolean || t == FlagTypeString
}

// Flag is a named boolean/string configuration flag persisted in the
// database. Flags are read fail-open: a missing or unreadable flag yields
// the caller's default so processing is never stopped by configuration
// gaps.
type Flag struct {
	shared.BaseEntity
	Key   string
	Type  FlagType
	Value string
}

// NewFlag creates a new flag
func NewFlag(key string, flagType FlagType, value string) (*Flag, error) {
	if key == "" {
		return nil, shared.NewDomainError("INVALID_FLAG_KEY", "Flag key cannot be empty")
	}
	if !flagType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FLAG_TYPE", "Unknown flag type")
	}
	return &Flag{
		BaseEntity: shared.NewBaseEntity(),
		Key:        key,
		Type:       flagType,
		Value:      value,
	}, nil
}

// BoolValue parses the flag value as a boolean, falling back to the default
// on type or parse mismatch
func (f *Flag) BoolValue(def bool) bool {
	if f.Type != FlagTypeBoolean {
		return def
	}
	v, err := strconv.ParseBool(f.Value)
	if err != nil {
		return def
	}
	return v
}

// SetValue updates the flag value
func (f *Flag) SetValue(value string) {
	f.Value = value
	f.Touch()
}

// Repository defines persistence for workflow flags
type Repository interface {
	// FindByKey finds a flag by key, or shared.ErrNotFound if absent
	FindByKey(ctx context.Context, key string) (*Flag, error)

	// FindAll returns all flags
	FindAll(ctx context.Context) ([]Flag, error)

	// Save upserts a flag, keyed by flag key
	Save(ctx context.Context, flag *Flag) error
}
