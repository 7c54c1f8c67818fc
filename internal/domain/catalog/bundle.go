package catalog

import (
	"github.com/fulfillment/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BundleComponent is one constituent of a bundle definition
type BundleComponent struct {
	// ComponentCode is the base product code of the constituent
	ComponentCode string `json:"component_code"`
	// Multiplier is how many units of the component one bundle contains
	Multiplier int `json:"multiplier"`
}

// BundleDefinition maps a composite product code to its constituent
// components. Components are never themselves bundles; expansion is one
// level deep.
type BundleDefinition struct {
	shared.BaseEntity
	// BundleCode is the composite product code
	BundleCode string
	// Components is the ordered list of constituents
	Components []BundleComponent
	// IsActive controls whether the bundle is expanded. An inactive bundle
	// passes through unexpanded as a plain product code.
	IsActive bool
}

// NewBundleDefinition creates a new bundle definition
func NewBundleDefinition(bundleCode string, components []BundleComponent) (*BundleDefinition, error) {
	if bundleCode == "" {
		return nil, shared.NewDomainError("INVALID_BUNDLE_CODE", "Bundle code cannot be empty")
	}
	for _, c := range components {
		if c.ComponentCode == "" {
			return nil, shared.NewDomainError("INVALID_COMPONENT", "Component code cannot be empty")
		}
		if c.Multiplier < 1 {
			return nil, shared.NewDomainError("INVALID_MULTIPLIER", "Component multiplier must be at least 1")
		}
	}
	return &BundleDefinition{
		BaseEntity: shared.NewBaseEntity(),
		BundleCode: bundleCode,
		Components: components,
		IsActive:   true,
	}, nil
}

// Deactivate marks the bundle definition as inactive
func (b *BundleDefinition) Deactivate() {
	b.IsActive = false
	b.Touch()
}

// Activate marks the bundle definition as active
func (b *BundleDefinition) Activate() {
	b.IsActive = true
	b.Touch()
}

// ResolvedLineItem is a line item after bundle expansion and lot resolution.
// It is derived, never persisted independently, and consumed only by the
// uploader.
type ResolvedLineItem struct {
	// BaseCode is the base product code without any lot suffix
	BaseCode string
	// Quantity is the expanded quantity
	Quantity decimal.Decimal
	// UnitPrice is the unit price carried over from the intake item, if any
	UnitPrice decimal.Decimal
	// Lot is the resolved manufacturing lot, empty when unresolved
	Lot string
}

// UploadCode returns the product code to upload: "{base} - {lot}" when a
// lot was resolved, the base code as-is otherwise.
func (r ResolvedLineItem) UploadCode() string {
	return JoinProductCode(r.BaseCode, r.Lot)
}

// ExpandLineItem expands a single intake line item against a bundle
// definition. A nil or inactive definition passes the code through unchanged
// as a single resolved item. An active definition with zero components
// yields zero items; callers must treat that as "no shippable items" and
// must not silently drop the order.
func ExpandLineItem(def *BundleDefinition, productCode string, quantity, unitPrice decimal.Decimal) []ResolvedLineItem {
	if def == nil || !def.IsActive {
		return []ResolvedLineItem{{
			BaseCode:  productCode,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}}
	}

	items := make([]ResolvedLineItem, 0, len(def.Components))
	for _, c := range def.Components {
		items = append(items, ResolvedLineItem{
			BaseCode: c.ComponentCode,
			Quantity: quantity.Mul(decimal.NewFromInt(int64(c.Multiplier))),
		})
	}
	return items
}
