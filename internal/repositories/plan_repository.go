package repositories

import (
	"time"

	"taqsit/internal/models"
)

// PlanRepository defines installment plan and installment database
// operations.
type PlanRepository interface {
	// Create stores the plan together with its full schedule.
	Create(plan *models.InstallmentPlan) error
	GetByID(id uint) (*models.InstallmentPlan, error)
	GetByPurchaseRequestID(requestID uint) (*models.InstallmentPlan, error)
	Update(plan *models.InstallmentPlan) error
	ListByCustomer(customerID uint, status *models.PlanStatus) ([]models.InstallmentPlan, error)

	GetInstallmentByID(id uint) (*models.Installment, error)

	// GetInstallmentForUpdate loads an installment under a row lock so
	// concurrent payments against it serialize. Only meaningful inside
	// a transaction.
	GetInstallmentForUpdate(id uint) (*models.Installment, error)
	UpdateInstallment(installment *models.Installment) error
	ListInstallments(planID uint) ([]models.Installment, error)
	NextPendingInstallment(planID uint) (*models.Installment, error)
	ListOverdueByCustomer(customerID uint) ([]models.Installment, error)
	ListPaymentRequestedByMerchant(merchantID uint) ([]models.Installment, error)

	// MarkOverdue flips every pending installment past its due date to
	// overdue and returns the number affected. Idempotent.
	MarkOverdue(now time.Time) (int64, error)
}
