package models

import (
	"time"
)

// Merchant carries the settlement ledger for a business. Crediting is
// two-phase by design: the full gross amount lands on the balance when
// the customer approves a purchase, and the platform fee is deducted
// only when the repayment plan completes. Reconciliation reports rely
// on seeing both legs, so the two steps must never be collapsed into a
// single net credit.
type Merchant struct {
	ID                     uint   `gorm:"primarykey"`
	UserID                 uint   `gorm:"uniqueIndex;not null"`
	BusinessName           string `gorm:"not null"`
	CommercialRegistration string `gorm:"uniqueIndex;not null"`
	TaxNumber              string
	BusinessCategory       string

	Balance       float64 `gorm:"default:0"`
	TotalEarnings float64 `gorm:"default:0"`
	TotalFeesPaid float64 `gorm:"default:0"`

	BankName string
	IBAN     string

	BusinessAddress string
	City            string

	IsApproved bool `gorm:"default:false"`
	ApprovedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreditGross adds the full purchase amount to the balance and the
// earnings total when a purchase is approved. The fee stays invisible
// until DeductFee runs at plan completion.
func (m *Merchant) CreditGross(amount float64) {
	m.Balance = Round2(m.Balance + amount)
	m.TotalEarnings = Round2(m.TotalEarnings + amount)
}

// DeductFee subtracts the deferred platform fee once the purchase is
// fully repaid, moving it into the fees-paid total.
func (m *Merchant) DeductFee(fee float64) {
	m.Balance = Round2(m.Balance - fee)
	m.TotalEarnings = Round2(m.TotalEarnings - fee)
	m.TotalFeesPaid = Round2(m.TotalFeesPaid + fee)
}
