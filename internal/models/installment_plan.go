package models

import (
	"errors"
	"time"
)

// PlanStatus tracks collection progress of a whole plan. It is a
// distinct type from InstallmentStatus even though the labels overlap:
// the two state machines have different legal transitions and must not
// be mixed.
type PlanStatus string

const (
	PlanStatusPending       PlanStatus = "pending"
	PlanStatusPartiallyPaid PlanStatus = "partially_paid"
	PlanStatusPaid          PlanStatus = "paid"
)

// InstallmentStatus tracks a single scheduled repayment.
type InstallmentStatus string

const (
	InstallmentStatusPending          InstallmentStatus = "pending"
	InstallmentStatusPaymentRequested InstallmentStatus = "payment_requested" // customer asked to pay, waiting for merchant
	InstallmentStatusPartiallyPaid    InstallmentStatus = "partially_paid"
	InstallmentStatusPaid             InstallmentStatus = "paid"
	InstallmentStatusOverdue          InstallmentStatus = "overdue"
)

// Plan term bounds in months.
const (
	MinPlanMonths = 1
	MaxPlanMonths = 28
)

var ErrInvalidMonthCount = errors.New("number of months must be between 1 and 28")

// InstallmentPlan splits an approved purchase into monthly
// installments. paid + remaining always equals the total, and the
// schedule amounts sum to the total exactly: the last installment
// absorbs whatever rounding leaves over.
type InstallmentPlan struct {
	ID                uint `gorm:"primarykey"`
	PurchaseRequestID uint `gorm:"uniqueIndex;not null"`
	CustomerID        uint `gorm:"index;not null"`

	TotalAmount   float64 `gorm:"not null"`
	MonthCount    int     `gorm:"not null"`
	MonthlyAmount float64 `gorm:"not null"`

	TotalPaid         float64 `gorm:"default:0"`
	RemainingAmount   float64 `gorm:"not null"`
	PaymentsMade      int     `gorm:"default:0"`
	PaymentsRemaining int     `gorm:"not null"`

	Status PlanStatus `gorm:"type:varchar(20);index;default:'pending'"`

	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Installments []Installment `gorm:"foreignKey:PlanID"`
}

// Installment is one scheduled partial repayment within a plan.
type Installment struct {
	ID     uint `gorm:"primarykey"`
	PlanID uint `gorm:"index;not null"`

	Number  int       `gorm:"not null"`
	DueDate time.Time `gorm:"not null"`

	Amount     float64 `gorm:"not null"`
	AmountPaid float64 `gorm:"default:0"`

	Status InstallmentStatus `gorm:"type:varchar(20);index;default:'pending'"`

	PaidAt           *time.Time
	PaymentReference string
	RequestedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemainingDue is how much of this installment is still owed.
func (i *Installment) RemainingDue() float64 {
	return Round2(i.Amount - i.AmountPaid)
}

// MonthlyAmount computes the per-month payment for a plan.
func MonthlyAmount(totalAmount float64, monthCount int) (float64, error) {
	if monthCount < MinPlanMonths || monthCount > MaxPlanMonths {
		return 0, ErrInvalidMonthCount
	}
	return Round2(totalAmount / float64(monthCount)), nil
}

// NewInstallmentPlan builds a plan and its full schedule for an
// approved purchase request. The first installment falls due one
// calendar month after now, each following one a calendar month later.
// Installments 1..n-1 carry the rounded monthly amount; the final one
// carries the exact remainder so the schedule sums to the total.
func NewInstallmentPlan(request *PurchaseRequest, monthCount int, now time.Time) (*InstallmentPlan, error) {
	monthly, err := MonthlyAmount(request.Amount, monthCount)
	if err != nil {
		return nil, err
	}

	startDate := AddMonths(now, 1)
	plan := &InstallmentPlan{
		PurchaseRequestID: request.ID,
		CustomerID:        request.CustomerID,
		TotalAmount:       request.Amount,
		MonthCount:        monthCount,
		MonthlyAmount:     monthly,
		TotalPaid:         0,
		RemainingAmount:   request.Amount,
		PaymentsMade:      0,
		PaymentsRemaining: monthCount,
		Status:            PlanStatusPending,
		StartDate:         startDate,
		EndDate:           AddMonths(now, monthCount),
	}

	remaining := request.Amount
	for n := 1; n <= monthCount; n++ {
		amount := monthly
		if n == monthCount {
			amount = Round2(remaining)
		} else {
			remaining = Round2(remaining - monthly)
		}
		plan.Installments = append(plan.Installments, Installment{
			Number:  n,
			DueDate: AddMonths(now, n),
			Amount:  amount,
			Status:  InstallmentStatusPending,
		})
	}

	return plan, nil
}
