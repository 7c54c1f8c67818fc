package shipping

import (
	"testing"
	"time"

	"github.com/fulfillment/backend/internal/domain/ordering"
	"github.com/fulfillment/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderTo(t *testing.T, country string, priority bool) *ordering.Order {
	t.Helper()
	order, err := ordering.NewOrder("1001", time.Now(), valueobject.Address{
		Name:        "Sam Okafor",
		Street1:     "5 High St",
		City:        "Leeds",
		CountryCode: country,
	})
	require.NoError(t, err)
	order.Priority = priority
	return order
}

func TestRuleSetClassify(t *testing.T) {
	rs := DefaultRuleSet()

	t.Run("domestic non-priority is standard", func(t *testing.T) {
		assert.Equal(t, ShipmentClassStandard, rs.Classify(orderTo(t, "US", false)))
	})

	t.Run("domestic priority is expedited", func(t *testing.T) {
		assert.Equal(t, ShipmentClassExpedited, rs.Classify(orderTo(t, "US", true)))
	})

	t.Run("foreign destination is international regardless of priority", func(t *testing.T) {
		assert.Equal(t, ShipmentClassInternational, rs.Classify(orderTo(t, "GB", true)))
	})

	t.Run("country comparison is case-insensitive", func(t *testing.T) {
		assert.Equal(t, ShipmentClassStandard, rs.Classify(orderTo(t, "us", false)))
	})
}

func TestRuleSetCheck(t *testing.T) {
	rs := DefaultRuleSet()

	t.Run("standard class yields no findings", func(t *testing.T) {
		order := orderTo(t, "US", false)
		order.SetActualShipping("fedex", "fedex_ground")
		assert.Empty(t, rs.Check(order))
	})

	t.Run("expedited order on wrong carrier and service", func(t *testing.T) {
		order := orderTo(t, "US", true)
		order.SetActualShipping("fedex", "fedex_ground")

		findings := rs.Check(order)
		require.Len(t, findings, 2)
		assert.Equal(t, ViolationKindCarrierMismatch, findings[0].Kind)
		assert.Equal(t, "ups", findings[0].Expected)
		assert.Equal(t, "fedex", findings[0].Actual)
		assert.Equal(t, ViolationKindServiceMismatch, findings[1].Kind)
	})

	t.Run("expedited order on expected carrier and service is clean", func(t *testing.T) {
		order := orderTo(t, "US", true)
		order.SetActualShipping("ups", "ups_next_day_air")
		assert.Empty(t, rs.Check(order))
	})

	t.Run("international checks carrier only", func(t *testing.T) {
		order := orderTo(t, "DE", false)
		order.SetActualShipping("ups", "ups_worldwide_saver")

		findings := rs.Check(order)
		require.Len(t, findings, 1)
		assert.Equal(t, ViolationKindCarrierMismatch, findings[0].Kind)
		assert.Equal(t, "ups_international", findings[0].Expected)
	})

	t.Run("check never mutates the order", func(t *testing.T) {
		order := orderTo(t, "US", true)
		order.SetActualShipping("fedex", "fedex_ground")
		statusBefore := order.Status
		updatedBefore := order.UpdatedAt

		rs.Check(order)
		assert.Equal(t, statusBefore, order.Status)
		assert.Equal(t, updatedBefore, order.UpdatedAt)
	})
}
