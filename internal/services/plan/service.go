package plan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taqsit/internal/models"
	"taqsit/internal/repositories"
	"taqsit/internal/utils"
)

type service struct {
	store  repositories.LedgerStore
	cache  Cache
	config Config
}

// NewService creates a new repayment service.
func NewService(store repositories.LedgerStore, cache Cache, config Config) Service {
	if store == nil {
		panic("store is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &service{
		store:  store,
		cache:  cache,
		config: config,
	}
}

func (s *service) Pay(ctx context.Context, customerUserID, installmentID uint, amount float64) (*PaymentResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	installment, _, customer, err := s.installmentForCustomer(customerUserID, installmentID)
	if err != nil {
		return nil, err
	}
	if installment.Status == models.InstallmentStatusPaid {
		return nil, ErrAlreadySettled
	}

	var result *PaymentResult
	var merchantID uint
	err = s.store.ExecuteInTransaction(func(tx repositories.LedgerStore) error {
		result, merchantID, err = s.settle(tx, installmentID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, customer.ID, merchantID, result.PlanCompleted)

	log.Printf("installment payment applied: installment=%d amount=%.2f plan_remaining=%.2f",
		installmentID, result.AmountApplied, result.PlanRemaining)

	return result, nil
}

func (s *service) RequestPayment(ctx context.Context, customerUserID, installmentID uint) (*models.Installment, error) {
	installment, _, _, err := s.installmentForCustomer(customerUserID, installmentID)
	if err != nil {
		return nil, err
	}

	switch installment.Status {
	case models.InstallmentStatusPending, models.InstallmentStatusPartiallyPaid, models.InstallmentStatusOverdue:
	case models.InstallmentStatusPaid:
		return nil, ErrAlreadySettled
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, installment.Status)
	}

	now := s.config.Now()
	installment.Status = models.InstallmentStatusPaymentRequested
	installment.RequestedAt = &now
	if err := s.store.Plans().UpdateInstallment(installment); err != nil {
		return nil, err
	}

	log.Printf("payment requested: installment=%d", installmentID)
	return installment, nil
}

func (s *service) ApprovePaymentRequest(ctx context.Context, merchantUserID, installmentID uint) (*PaymentResult, error) {
	installment, _, merchant, err := s.installmentForMerchant(merchantUserID, installmentID)
	if err != nil {
		return nil, err
	}
	if installment.Status != models.InstallmentStatusPaymentRequested {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, installment.Status)
	}

	var result *PaymentResult
	var customerID uint
	err = s.store.ExecuteInTransaction(func(tx repositories.LedgerStore) error {
		inst, err := tx.Plans().GetInstallmentByID(installmentID)
		if err != nil {
			return err
		}
		plan, err := tx.Plans().GetByID(inst.PlanID)
		if err != nil {
			return err
		}
		customerID = plan.CustomerID

		// Merchant confirmation settles the installment in full.
		result, _, err = s.settle(tx, installmentID, inst.RemainingDue())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, customerID, merchant.ID, result.PlanCompleted)

	log.Printf("payment request approved: installment=%d merchant=%d amount=%.2f",
		installmentID, merchant.ID, result.AmountApplied)

	return result, nil
}

func (s *service) RejectPaymentRequest(ctx context.Context, merchantUserID, installmentID uint) (*models.Installment, error) {
	installment, _, merchant, err := s.installmentForMerchant(merchantUserID, installmentID)
	if err != nil {
		return nil, err
	}
	if installment.Status != models.InstallmentStatusPaymentRequested {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, installment.Status)
	}

	// Return the installment to the state it would be in had no request
	// been made.
	switch {
	case installment.AmountPaid > 0:
		installment.Status = models.InstallmentStatusPartiallyPaid
	case s.config.Now().After(installment.DueDate):
		installment.Status = models.InstallmentStatusOverdue
	default:
		installment.Status = models.InstallmentStatusPending
	}
	installment.RequestedAt = nil

	if err := s.store.Plans().UpdateInstallment(installment); err != nil {
		return nil, err
	}

	log.Printf("payment request rejected: installment=%d merchant=%d", installmentID, merchant.ID)
	return installment, nil
}

func (s *service) GetPlan(ctx context.Context, customerUserID, planID uint) (*models.InstallmentPlan, error) {
	plan, err := s.store.Plans().GetByID(planID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		return nil, err
	}
	if plan.CustomerID != customer.ID {
		return nil, ErrWrongOwner
	}
	return plan, nil
}

func (s *service) GetPlanForPurchase(ctx context.Context, requestID uint) (*models.InstallmentPlan, error) {
	plan, err := s.store.Plans().GetByPurchaseRequestID(requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerUserID uint, status *models.PlanStatus) ([]models.InstallmentPlan, error) {
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.Plans().ListByCustomer(customer.ID, status)
}

func (s *service) NextInstallment(ctx context.Context, customerUserID, planID uint) (*models.Installment, error) {
	if _, err := s.GetPlan(ctx, customerUserID, planID); err != nil {
		return nil, err
	}
	installment, err := s.store.Plans().NextPendingInstallment(planID)
	if err != nil {
		if errors.Is(err, repositories.ErrInstallmentMissing) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return installment, nil
}

func (s *service) ListOverdueForCustomer(ctx context.Context, customerUserID uint) ([]models.Installment, error) {
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.Plans().ListOverdueByCustomer(customer.ID)
}

func (s *service) ListPaymentRequestsForMerchant(ctx context.Context, merchantUserID uint) ([]models.Installment, error) {
	merchant, err := s.store.Merchants().GetByUserID(merchantUserID)
	if err != nil {
		return nil, err
	}
	return s.store.Plans().ListPaymentRequestedByMerchant(merchant.ID)
}

func (s *service) SweepOverdue(ctx context.Context) (int64, error) {
	count, err := s.store.Plans().MarkOverdue(s.config.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("marked %d installments overdue", count)
	}
	return count, nil
}

// settle applies amount to an installment inside tx and propagates the
// effects: the plan's running totals, the customer's restored limit
// and, when the plan finishes, the purchase completion with the fee
// deduction. Amounts above the installment's remaining due are capped.
func (s *service) settle(tx repositories.LedgerStore, installmentID uint, amount float64) (*PaymentResult, uint, error) {
	now := s.config.Now()

	// Row lock serializes concurrent payments against the same
	// installment for the rest of the transaction.
	installment, err := tx.Plans().GetInstallmentForUpdate(installmentID)
	if err != nil {
		return nil, 0, err
	}
	if installment.Status == models.InstallmentStatusPaid {
		return nil, 0, ErrAlreadySettled
	}

	plan, err := tx.Plans().GetByID(installment.PlanID)
	if err != nil {
		return nil, 0, err
	}

	applied := models.Round2(amount)
	if due := installment.RemainingDue(); applied > due {
		applied = due
	}

	reference := utils.GenerateReferenceNumber("PAY")
	installment.AmountPaid = models.Round2(installment.AmountPaid + applied)
	installment.PaymentReference = reference
	installment.RequestedAt = nil
	if installment.RemainingDue() == 0 {
		installment.Status = models.InstallmentStatusPaid
		installment.PaidAt = &now
		// Counters move only when an installment closes, not on every
		// partial payment.
		plan.PaymentsMade++
		plan.PaymentsRemaining--
	} else {
		installment.Status = models.InstallmentStatusPartiallyPaid
	}
	if err := tx.Plans().UpdateInstallment(installment); err != nil {
		return nil, 0, err
	}

	plan.TotalPaid = models.Round2(plan.TotalPaid + applied)
	plan.RemainingAmount = models.Round2(plan.TotalAmount - plan.TotalPaid)
	completed := plan.RemainingAmount <= 0
	if completed {
		plan.RemainingAmount = 0
		plan.Status = models.PlanStatusPaid
		plan.CompletedAt = &now
	} else {
		plan.Status = models.PlanStatusPartiallyPaid
	}
	if err := tx.Plans().Update(plan); err != nil {
		return nil, 0, err
	}

	customer, err := tx.Customers().GetByIDForUpdate(plan.CustomerID)
	if err != nil {
		return nil, 0, err
	}
	customer.Release(applied)
	if err := tx.Customers().Update(customer); err != nil {
		return nil, 0, err
	}

	request, err := tx.Purchases().GetByID(plan.PurchaseRequestID)
	if err != nil {
		return nil, 0, err
	}
	if completed {
		if err := s.completePurchase(tx, request, now); err != nil {
			return nil, 0, err
		}
	}

	return &PaymentResult{
		InstallmentID:    installment.ID,
		PaymentReference: reference,
		AmountApplied:    applied,
		InstallmentDue:   installment.RemainingDue(),
		PlanRemaining:    plan.RemainingAmount,
		LimitRestored:    applied,
		Installment:      installment.Status,
		Plan:             plan.Status,
		PlanCompleted:    completed,
	}, request.MerchantID, nil
}

// completePurchase closes out a fully repaid purchase: the request
// moves to completed and the platform fee snapshotted at creation is
// deducted from the merchant.
func (s *service) completePurchase(tx repositories.LedgerStore, request *models.PurchaseRequest, now time.Time) error {
	if err := tx.Purchases().UpdateStatus(request.ID, models.RequestStatusApproved, models.RequestStatusCompleted); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return fmt.Errorf("%w: %s", ErrInvalidState, request.Status)
		}
		return err
	}
	request.Status = models.RequestStatusCompleted
	request.CompletedAt = &now
	if err := tx.Purchases().Update(request); err != nil {
		return err
	}

	merchant, err := tx.Merchants().GetByIDForUpdate(request.MerchantID)
	if err != nil {
		return err
	}
	merchant.DeductFee(request.FeeAmount)
	if err := tx.Merchants().Update(merchant); err != nil {
		return err
	}

	log.Printf("purchase completed: ref=%s fee=%.2f", request.ReferenceNumber, request.FeeAmount)
	return nil
}

func (s *service) installmentForCustomer(customerUserID, installmentID uint) (*models.Installment, *models.InstallmentPlan, *models.Customer, error) {
	installment, err := s.store.Plans().GetInstallmentByID(installmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrInstallmentMissing) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, err
	}
	plan, err := s.store.Plans().GetByID(installment.PlanID)
	if err != nil {
		return nil, nil, nil, err
	}
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		return nil, nil, nil, err
	}
	if plan.CustomerID != customer.ID {
		return nil, nil, nil, ErrWrongOwner
	}
	return installment, plan, customer, nil
}

func (s *service) installmentForMerchant(merchantUserID, installmentID uint) (*models.Installment, *models.InstallmentPlan, *models.Merchant, error) {
	installment, err := s.store.Plans().GetInstallmentByID(installmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrInstallmentMissing) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, err
	}
	plan, err := s.store.Plans().GetByID(installment.PlanID)
	if err != nil {
		return nil, nil, nil, err
	}
	request, err := s.store.Purchases().GetByID(plan.PurchaseRequestID)
	if err != nil {
		return nil, nil, nil, err
	}
	merchant, err := s.store.Merchants().GetByUserID(merchantUserID)
	if err != nil {
		return nil, nil, nil, err
	}
	if request.MerchantID != merchant.ID {
		return nil, nil, nil, ErrWrongOwner
	}
	return installment, plan, merchant, nil
}

func (s *service) invalidate(ctx context.Context, customerID, merchantID uint, completed bool) {
	if err := s.cache.InvalidateCustomer(ctx, customerID); err != nil {
		log.Printf("failed to invalidate customer cache: %v", err)
	}
	if completed && merchantID != 0 {
		if err := s.cache.InvalidateMerchant(ctx, merchantID); err != nil {
			log.Printf("failed to invalidate merchant cache: %v", err)
		}
	}
}
