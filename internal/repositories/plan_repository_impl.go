package repositories

import (
	"errors"
	"fmt"
	"time"

	"taqsit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.InstallmentPlan) error {
	// gorm persists the Installments association in the same insert.
	if err := r.db.Create(plan).Error; err != nil {
		return fmt.Errorf("failed to create installment plan: %w", err)
	}
	return nil
}

func (r *planRepository) GetByID(id uint) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	err := r.db.Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get installment plan: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) GetByPurchaseRequestID(requestID uint) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	err := r.db.Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).Where("purchase_request_id = ?", requestID).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get installment plan: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) Update(plan *models.InstallmentPlan) error {
	// Installments are saved individually through UpdateInstallment;
	// skipping the association avoids clobbering concurrent rows.
	if err := r.db.Omit("Installments").Save(plan).Error; err != nil {
		return fmt.Errorf("failed to update installment plan: %w", err)
	}
	return nil
}

func (r *planRepository) ListByCustomer(customerID uint, status *models.PlanStatus) ([]models.InstallmentPlan, error) {
	query := r.db.Where("customer_id = ?", customerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var plans []models.InstallmentPlan
	if err := query.Order("created_at DESC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("failed to list customer plans: %w", err)
	}
	return plans, nil
}

func (r *planRepository) GetInstallmentByID(id uint) (*models.Installment, error) {
	var installment models.Installment
	if err := r.db.First(&installment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstallmentMissing
		}
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}
	return &installment, nil
}

func (r *planRepository) GetInstallmentForUpdate(id uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&installment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstallmentMissing
		}
		return nil, fmt.Errorf("failed to lock installment: %w", err)
	}
	return &installment, nil
}

func (r *planRepository) UpdateInstallment(installment *models.Installment) error {
	if err := r.db.Save(installment).Error; err != nil {
		return fmt.Errorf("failed to update installment: %w", err)
	}
	return nil
}

func (r *planRepository) ListInstallments(planID uint) ([]models.Installment, error) {
	var installments []models.Installment
	if err := r.db.Where("plan_id = ?", planID).Order("number ASC").Find(&installments).Error; err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	return installments, nil
}

func (r *planRepository) NextPendingInstallment(planID uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.
		Where("plan_id = ? AND status IN ?", planID, []models.InstallmentStatus{
			models.InstallmentStatusPending,
			models.InstallmentStatusPartiallyPaid,
			models.InstallmentStatusOverdue,
		}).
		Order("due_date ASC").
		First(&installment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstallmentMissing
		}
		return nil, fmt.Errorf("failed to get next installment: %w", err)
	}
	return &installment, nil
}

func (r *planRepository) ListOverdueByCustomer(customerID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.
		Joins("JOIN installment_plans ON installment_plans.id = installments.plan_id").
		Where("installment_plans.customer_id = ? AND installments.status = ?", customerID, models.InstallmentStatusOverdue).
		Order("installments.due_date ASC").
		Find(&installments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue installments: %w", err)
	}
	return installments, nil
}

func (r *planRepository) ListPaymentRequestedByMerchant(merchantID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.
		Joins("JOIN installment_plans ON installment_plans.id = installments.plan_id").
		Joins("JOIN purchase_requests ON purchase_requests.id = installment_plans.purchase_request_id").
		Where("purchase_requests.merchant_id = ? AND installments.status = ?", merchantID, models.InstallmentStatusPaymentRequested).
		Order("installments.requested_at ASC").
		Find(&installments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment requests: %w", err)
	}
	return installments, nil
}

func (r *planRepository) MarkOverdue(now time.Time) (int64, error) {
	// Only pending rows flip, so the sweep can run alongside payments
	// without racing them destructively.
	result := r.db.Model(&models.Installment{}).
		Where("status = ? AND due_date < ?", models.InstallmentStatusPending, now).
		Update("status", models.InstallmentStatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue installments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
