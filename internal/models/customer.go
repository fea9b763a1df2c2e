package models

import (
	"time"
)

// Customer owns a revolving credit account. The three limit fields move
// only through Reserve, Release and Resize, which keep the invariant
// available_limit + used_limit == credit_limit after every mutation.
type Customer struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"uniqueIndex;not null"`
	NationalID string `gorm:"uniqueIndex;not null"`

	CreditLimit    float64 `gorm:"default:0"`
	AvailableLimit float64 `gorm:"default:0"`
	UsedLimit      float64 `gorm:"default:0"`

	Address string
	City    string

	IsApproved bool `gorm:"default:false"`
	ApprovedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanReserve reports whether the account is approved and has enough
// available limit for a purchase of the given amount.
func (c *Customer) CanReserve(amount float64) bool {
	return c.IsApproved && c.AvailableLimit >= amount
}

// Reserve allocates limit to an approved purchase. Returns false when
// the capacity check fails; the account is left untouched in that case.
func (c *Customer) Reserve(amount float64) bool {
	if !c.CanReserve(amount) {
		return false
	}
	c.AvailableLimit = Round2(c.AvailableLimit - amount)
	c.UsedLimit = Round2(c.UsedLimit + amount)
	return true
}

// Release restores limit when the customer repays. Over-release is
// clamped rather than rejected: upstream caps payments at the remaining
// due, so a clamp here can only absorb rounding residue.
func (c *Customer) Release(amount float64) {
	c.AvailableLimit = Round2(c.AvailableLimit + amount)
	c.UsedLimit = Round2(c.UsedLimit - amount)
	if c.UsedLimit < 0 {
		c.UsedLimit = 0
	}
	if c.AvailableLimit > c.CreditLimit {
		c.AvailableLimit = c.CreditLimit
	}
}

// Resize applies the delta between the new and old ceiling to both the
// credit limit and the available limit, then clamps available into
// [0, newLimit]. Used limit is deliberately untouched: shrinking below
// current usage leaves available at 0 until repayments catch up.
func (c *Customer) Resize(newLimit float64) {
	delta := newLimit - c.CreditLimit
	c.CreditLimit = newLimit
	c.AvailableLimit = Round2(c.AvailableLimit + delta)
	if c.AvailableLimit > c.CreditLimit {
		c.AvailableLimit = c.CreditLimit
	}
	if c.AvailableLimit < 0 {
		c.AvailableLimit = 0
	}
}
