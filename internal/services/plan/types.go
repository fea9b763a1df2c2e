package plan

import (
	"context"
	"time"

	"taqsit/internal/models"
)

// Config holds repayment service settings.
type Config struct {
	// Now is the clock; injectable for deterministic due-date tests.
	Now func() time.Time
}

// Cache is the invalidation surface the service needs after balance
// mutations.
type Cache interface {
	InvalidateCustomer(ctx context.Context, customerID uint) error
	InvalidateMerchant(ctx context.Context, merchantID uint) error
}

// NoopCache is used when no cache is configured.
type NoopCache struct{}

func (NoopCache) InvalidateCustomer(context.Context, uint) error { return nil }
func (NoopCache) InvalidateMerchant(context.Context, uint) error { return nil }

// PaymentResult describes what a single payment did.
type PaymentResult struct {
	InstallmentID    uint                     `json:"installment_id"`
	PaymentReference string                   `json:"payment_reference"`
	AmountApplied    float64                  `json:"amount_applied"`
	InstallmentDue   float64                  `json:"installment_remaining"`
	PlanRemaining    float64                  `json:"plan_remaining"`
	LimitRestored    float64                  `json:"limit_restored"`
	Installment      models.InstallmentStatus `json:"installment_status"`
	Plan             models.PlanStatus        `json:"plan_status"`
	PlanCompleted    bool                     `json:"plan_completed"`
}

// Service is the repayment side of the ledger: the installment
// schedule, payment application and the overdue sweep. Applying a
// payment restores the customer's available limit by the amount
// applied; finishing a plan completes the purchase and settles the
// platform fee against the merchant.
type Service interface {
	// Pay applies a customer payment to an installment. Amounts above
	// the installment's remaining due are capped, never rejected.
	Pay(ctx context.Context, customerUserID, installmentID uint, amount float64) (*PaymentResult, error)

	// RequestPayment flags an installment for merchant-side collection.
	RequestPayment(ctx context.Context, customerUserID, installmentID uint) (*models.Installment, error)

	// ApprovePaymentRequest settles a requested installment in full on
	// the merchant's confirmation.
	ApprovePaymentRequest(ctx context.Context, merchantUserID, installmentID uint) (*PaymentResult, error)

	// RejectPaymentRequest returns a requested installment to its
	// previous collectible state.
	RejectPaymentRequest(ctx context.Context, merchantUserID, installmentID uint) (*models.Installment, error)

	GetPlan(ctx context.Context, customerUserID, planID uint) (*models.InstallmentPlan, error)
	GetPlanForPurchase(ctx context.Context, requestID uint) (*models.InstallmentPlan, error)
	ListForCustomer(ctx context.Context, customerUserID uint, status *models.PlanStatus) ([]models.InstallmentPlan, error)
	NextInstallment(ctx context.Context, customerUserID, planID uint) (*models.Installment, error)
	ListOverdueForCustomer(ctx context.Context, customerUserID uint) ([]models.Installment, error)
	ListPaymentRequestsForMerchant(ctx context.Context, merchantUserID uint) ([]models.Installment, error)

	// SweepOverdue flips pending installments past their due date;
	// returns the number affected.
	SweepOverdue(ctx context.Context) (int64, error)
}
