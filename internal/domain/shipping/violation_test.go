package shipping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViolation(t *testing.T) {
	t.Run("creates open violation", func(t *testing.T) {
		v, err := NewViolation(uuid.New(), ViolationKindCarrierMismatch, "ups", "fedex")
		require.NoError(t, err)
		assert.False(t, v.IsResolved())
		assert.False(t, v.DetectedAt.IsZero())
	})

	t.Run("rejects nil order id", func(t *testing.T) {
		_, err := NewViolation(uuid.Nil, ViolationKindCarrierMismatch, "ups", "fedex")
		assert.Error(t, err)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		_, err := NewViolation(uuid.New(), ViolationKind("BOGUS"), "ups", "fedex")
		assert.Error(t, err)
	})
}

func TestViolationResolve(t *testing.T) {
	t.Run("resolve sets resolved at", func(t *testing.T) {
		v, err := NewViolation(uuid.New(), ViolationKindServiceMismatch, "ups_next_day_air", "ups_ground")
		require.NoError(t, err)

		require.NoError(t, v.Resolve())
		assert.True(t, v.IsResolved())
		assert.NotNil(t, v.ResolvedAt)
	})

	t.Run("double resolve is rejected", func(t *testing.T) {
		v, err := NewViolation(uuid.New(), ViolationKindServiceMismatch, "a", "b")
		require.NoError(t, err)
		require.NoError(t, v.Resolve())
		assert.Error(t, v.Resolve())
	})
}

func TestViolationObserve(t *testing.T) {
	t.Run("refreshes open violation", func(t *testing.T) {
		v, err := NewViolation(uuid.New(), ViolationKindCarrierMismatch, "ups", "fedex")
		require.NoError(t, err)

		require.NoError(t, v.Observe("ups", "usps"))
		assert.Equal(t, "usps", v.Actual)
	})

	t.Run("resolved violation cannot be observed", func(t *testing.T) {
		v, err := NewViolation(uuid.New(), ViolationKindCarrierMismatch, "ups", "fedex")
		require.NoError(t, err)
		require.NoError(t, v.Resolve())
		assert.Error(t, v.Observe("ups", "usps"))
	})
}
