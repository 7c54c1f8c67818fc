package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBundleDefinition(t *testing.T) {
	t.Run("creates active bundle", func(t *testing.T) {
		def, err := NewBundleDefinition("BNDL-A", []BundleComponent{
			{ComponentCode: "SKU-1", Multiplier: 2},
		})
		require.NoError(t, err)
		assert.True(t, def.IsActive)
		assert.Equal(t, "BNDL-A", def.BundleCode)
	})

	t.Run("rejects empty bundle code", func(t *testing.T) {
		_, err := NewBundleDefinition("", nil)
		assert.Error(t, err)
	})

	t.Run("rejects zero multiplier", func(t *testing.T) {
		_, err := NewBundleDefinition("BNDL-A", []BundleComponent{
			{ComponentCode: "SKU-1", Multiplier: 0},
		})
		assert.Error(t, err)
	})

	t.Run("rejects empty component code", func(t *testing.T) {
		_, err := NewBundleDefinition("BNDL-A", []BundleComponent{
			{ComponentCode: "", Multiplier: 1},
		})
		assert.Error(t, err)
	})
}

func TestExpandLineItem(t *testing.T) {
	def, err := NewBundleDefinition("BNDL-A", []BundleComponent{
		{ComponentCode: "A", Multiplier: 2},
		{ComponentCode: "B", Multiplier: 3},
	})
	require.NoError(t, err)

	t.Run("expands components with multiplied quantities", func(t *testing.T) {
		items := ExpandLineItem(def, "BNDL-A", decimal.NewFromInt(1), decimal.Zero)
		require.Len(t, items, 2)
		assert.Equal(t, "A", items[0].BaseCode)
		assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(2)))
		assert.Equal(t, "B", items[1].BaseCode)
		assert.True(t, items[1].Quantity.Equal(decimal.NewFromInt(3)))
	})

	t.Run("multiplies by order quantity", func(t *testing.T) {
		items := ExpandLineItem(def, "BNDL-A", decimal.NewFromInt(4), decimal.Zero)
		require.Len(t, items, 2)
		assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(8)))
		assert.True(t, items[1].Quantity.Equal(decimal.NewFromInt(12)))
	})

	t.Run("non-bundle code passes through unchanged", func(t *testing.T) {
		price := decimal.NewFromFloat(9.99)
		items := ExpandLineItem(nil, "SKU-17612", decimal.NewFromInt(5), price)
		require.Len(t, items, 1)
		assert.Equal(t, "SKU-17612", items[0].BaseCode)
		assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(5)))
		assert.True(t, items[0].UnitPrice.Equal(price))
	})

	t.Run("inactive bundle passes through unexpanded", func(t *testing.T) {
		def.Deactivate()
		defer def.Activate()

		items := ExpandLineItem(def, "BNDL-A", decimal.NewFromInt(2), decimal.Zero)
		require.Len(t, items, 1)
		assert.Equal(t, "BNDL-A", items[0].BaseCode)
		assert.True(t, items[0].Quantity.Equal(decimal.NewFromInt(2)))
	})

	t.Run("active bundle with zero components yields zero items", func(t *testing.T) {
		empty, err := NewBundleDefinition("BNDL-EMPTY", nil)
		require.NoError(t, err)

		items := ExpandLineItem(empty, "BNDL-EMPTY", decimal.NewFromInt(1), decimal.Zero)
		assert.Empty(t, items)
	})
}

func TestResolvedLineItemUploadCode(t *testing.T) {
	t.Run("resolved lot is appended", func(t *testing.T) {
		item := ResolvedLineItem{BaseCode: "SKU-17612", Lot: "L250300"}
		assert.Equal(t, "SKU-17612 - L250300", item.UploadCode())
	})

	t.Run("unresolved lot keeps the base code as-is", func(t *testing.T) {
		item := ResolvedLineItem{BaseCode: "SKU-17612"}
		assert.Equal(t, "SKU-17612", item.UploadCode())
	})
}
