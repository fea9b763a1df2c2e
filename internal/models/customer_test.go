package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func approvedCustomer(limit float64) *Customer {
	return &Customer{
		CreditLimit:    limit,
		AvailableLimit: limit,
		UsedLimit:      0,
		IsApproved:     true,
	}
}

func assertLimitInvariant(t *testing.T, c *Customer) {
	t.Helper()
	assert.InDelta(t, c.CreditLimit, c.AvailableLimit+c.UsedLimit, 0.001,
		"available + used must equal credit limit")
	assert.GreaterOrEqual(t, c.AvailableLimit, 0.0)
	assert.GreaterOrEqual(t, c.UsedLimit, 0.0)
	assert.LessOrEqual(t, c.AvailableLimit, c.CreditLimit)
}

func TestCustomer_Reserve(t *testing.T) {
	t.Run("successful reservation", func(t *testing.T) {
		c := approvedCustomer(5000)

		ok := c.Reserve(1000)

		assert.True(t, ok)
		assert.Equal(t, 4000.0, c.AvailableLimit)
		assert.Equal(t, 1000.0, c.UsedLimit)
		assertLimitInvariant(t, c)
	})

	t.Run("insufficient limit", func(t *testing.T) {
		c := approvedCustomer(500)

		ok := c.Reserve(1000)

		assert.False(t, ok)
		assert.Equal(t, 500.0, c.AvailableLimit)
		assert.Equal(t, 0.0, c.UsedLimit)
	})

	t.Run("unapproved account cannot reserve", func(t *testing.T) {
		c := approvedCustomer(5000)
		c.IsApproved = false

		assert.False(t, c.CanReserve(100))
		assert.False(t, c.Reserve(100))
	})
}

func TestCustomer_Release(t *testing.T) {
	t.Run("partial release", func(t *testing.T) {
		c := approvedCustomer(5000)
		c.Reserve(1000)

		c.Release(250)

		assert.Equal(t, 4250.0, c.AvailableLimit)
		assert.Equal(t, 750.0, c.UsedLimit)
		assertLimitInvariant(t, c)
	})

	t.Run("over-release clamps instead of erroring", func(t *testing.T) {
		c := approvedCustomer(5000)
		c.Reserve(1000)

		c.Release(1500)

		assert.Equal(t, 5000.0, c.AvailableLimit)
		assert.Equal(t, 0.0, c.UsedLimit)
		assertLimitInvariant(t, c)
	})
}

func TestCustomer_Resize(t *testing.T) {
	t.Run("grow adds headroom", func(t *testing.T) {
		c := approvedCustomer(5000)
		c.Reserve(1000)

		c.Resize(8000)

		assert.Equal(t, 8000.0, c.CreditLimit)
		assert.Equal(t, 7000.0, c.AvailableLimit)
		assert.Equal(t, 1000.0, c.UsedLimit)
		assertLimitInvariant(t, c)
	})

	t.Run("shrink below usage clamps available to zero", func(t *testing.T) {
		c := approvedCustomer(5000)
		c.Reserve(1000) // available=4000, used=1000

		c.Resize(500)

		assert.Equal(t, 500.0, c.CreditLimit)
		assert.Equal(t, 0.0, c.AvailableLimit)
		// Used limit is untouched by design; it drains through repayment.
		assert.Equal(t, 1000.0, c.UsedLimit)
	})

	t.Run("shrink caps available at new ceiling", func(t *testing.T) {
		c := approvedCustomer(5000)

		c.Resize(3000)

		assert.Equal(t, 3000.0, c.CreditLimit)
		assert.Equal(t, 3000.0, c.AvailableLimit)
		assert.Equal(t, 0.0, c.UsedLimit)
		assertLimitInvariant(t, c)
	})
}
