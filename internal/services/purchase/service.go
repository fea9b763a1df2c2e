package purchase

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

// NewService creates a new purchase request service.
func NewService(store repositories.LedgerStore, cache Cache, config Config) Service {
	if store == nil {
		panic("store is required")
	}
	if cache == nil {
		cache = NoopCache{}
	}
	if config.FeePercent == 0 {
		config.FeePercent = 0.5
	}
	if config.RequestTTL == 0 {
		config.RequestTTL = models.RequestTTL
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

func (s *service) Create(ctx context.Context, merchantUserID uint, input CreateInput) (*models.PurchaseRequest, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	merchant, err := s.store.Merchants().GetByUserID(merchantUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	customer, err := s.store.Customers().GetByID(input.CustomerID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomerNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	if !customer.IsApproved {
		return nil, ErrCustomerNotApproved
	}
	if !customer.CanReserve(input.Amount) {
		return nil, fmt.Errorf("%w: available %.2f, required %.2f",
			ErrInsufficientLimit, customer.AvailableLimit, input.Amount)
	}

	// The fee rate is snapshotted here; later rate changes never touch
	// this request.
	fee, merchantReceives := models.CalculateFee(input.Amount, s.config.FeePercent)

	now := s.config.Now()
	request := &models.PurchaseRequest{
		ReferenceNumber:  utils.GenerateReferenceNumber("TXN"),
		CustomerID:       customer.ID,
		MerchantID:       merchant.ID,
		Amount:           input.Amount,
		FeePercent:       s.config.FeePercent,
		FeeAmount:        fee,
		MerchantReceives: merchantReceives,
		Description:      input.Description,
		ProductName:      input.ProductName,
		Status:           models.RequestStatusPending,
		ExpiresAt:        now.Add(s.config.RequestTTL),
	}

	if err := s.store.Purchases().Create(request); err != nil {
		return nil, err
	}

	log.Printf("purchase request created: ref=%s merchant=%d customer=%d amount=%.2f",
		request.ReferenceNumber, merchant.ID, customer.ID, request.Amount)

	return request, nil
}

func (s *service) Approve(ctx context.Context, customerUserID, requestID uint, months int) (*models.PurchaseRequest, error) {
	if months < models.MinPlanMonths || months > models.MaxPlanMonths {
		return nil, ErrInvalidMonths
	}

	request, customer, err := s.requestForCustomer(customerUserID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, request.Status)
	}

	now := s.config.Now()

	// Lazy expiry: the transition persists even though the approval
	// fails, so the sweep and the read path agree on the outcome.
	if request.Expired(now) {
		err := s.store.Purchases().UpdateStatus(requestID, models.RequestStatusPending, models.RequestStatusExpired)
		if err != nil && !errors.Is(err, repositories.ErrStatusConflict) {
			return nil, err
		}
		return nil, ErrExpired
	}

	err = s.store.ExecuteInTransaction(func(tx repositories.LedgerStore) error {
		// Compare-and-set on the pending status; a concurrent approval
		// of the same request loses here and rolls back.
		if err := tx.Purchases().UpdateStatus(requestID, models.RequestStatusPending, models.RequestStatusApproved); err != nil {
			if errors.Is(err, repositories.ErrStatusConflict) {
				return ErrInvalidState
			}
			return err
		}

		// Re-check capacity inside the transaction under a row lock;
		// the limit may have moved since the creation-time check.
		cust, err := tx.Customers().GetByIDForUpdate(customer.ID)
		if err != nil {
			return err
		}
		if !cust.Reserve(request.Amount) {
			return ErrInsufficientLimit
		}
		if err := tx.Customers().Update(cust); err != nil {
			return err
		}

		merchant, err := tx.Merchants().GetByIDForUpdate(request.MerchantID)
		if err != nil {
			return err
		}
		merchant.CreditGross(request.Amount)
		if err := tx.Merchants().Update(merchant); err != nil {
			return err
		}

		plan, err := models.NewInstallmentPlan(request, months, now)
		if err != nil {
			return ErrInvalidMonths
		}
		if err := tx.Plans().Create(plan); err != nil {
			return err
		}

		request.Status = models.RequestStatusApproved
		request.ApprovedAt = &now
		return tx.Purchases().Update(request)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, customer.ID, request.MerchantID)

	log.Printf("purchase request approved: ref=%s months=%d", request.ReferenceNumber, months)

	return request, nil
}

func (s *service) Reject(ctx context.Context, customerUserID, requestID uint, reason string) (*models.PurchaseRequest, error) {
	request, _, err := s.requestForCustomer(customerUserID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, request.Status)
	}

	if err := s.store.Purchases().UpdateStatus(requestID, models.RequestStatusPending, models.RequestStatusRejected); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	now := s.config.Now()
	request.Status = models.RequestStatusRejected
	request.RejectedAt = &now
	if err := s.store.Purchases().Update(request); err != nil {
		return nil, err
	}

	log.Printf("purchase request rejected: ref=%s reason=%q", request.ReferenceNumber, reason)
	return request, nil
}

func (s *service) Cancel(ctx context.Context, merchantUserID, requestID uint) (*models.PurchaseRequest, error) {
	merchant, err := s.store.Merchants().GetByUserID(merchantUserID)
	if err != nil {
		return nil, err
	}

	request, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.MerchantID != merchant.ID {
		return nil, ErrWrongOwner
	}
	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, request.Status)
	}

	if err := s.store.Purchases().UpdateStatus(requestID, models.RequestStatusPending, models.RequestStatusCancelled); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	request.Status = models.RequestStatusCancelled

	log.Printf("purchase request cancelled: ref=%s merchant=%d", request.ReferenceNumber, merchant.ID)
	return request, nil
}

func (s *service) Get(ctx context.Context, requestID uint) (*models.PurchaseRequest, error) {
	request, err := s.store.Purchases().GetByID(requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerUserID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error) {
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.Purchases().ListByCustomer(customer.ID, status, limit, offset)
}

func (s *service) ListForMerchant(ctx context.Context, merchantUserID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error) {
	merchant, err := s.store.Merchants().GetByUserID(merchantUserID)
	if err != nil {
		return nil, err
	}
	return s.store.Purchases().ListByMerchant(merchant.ID, status, limit, offset)
}

func (s *service) ListPendingForCustomer(ctx context.Context, customerUserID uint) ([]models.PurchaseRequest, error) {
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		return nil, err
	}
	return s.store.Purchases().ListPendingForCustomer(customer.ID, s.config.Now())
}

func (s *service) ListAll(ctx context.Context, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, int64, error) {
	return s.store.Purchases().ListPaginated(status, limit, offset)
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.store.Purchases().ExpirePending(s.config.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Printf("expired %d pending purchase requests", count)
	}
	return count, nil
}

// requestForCustomer loads a request and the caller's customer row and
// verifies ownership.
func (s *service) requestForCustomer(customerUserID, requestID uint) (*models.PurchaseRequest, *models.Customer, error) {
	request, err := s.store.Purchases().GetByID(requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomerNotFound) {
			return nil, nil, ErrCustomerNotFound
		}
		return nil, nil, err
	}

	if request.CustomerID != customer.ID {
		return nil, nil, ErrWrongOwner
	}
	return request, customer, nil
}

func (s *service) invalidate(ctx context.Context, customerID, merchantID uint) {
	if err := s.cache.InvalidateCustomer(ctx, customerID); err != nil {
		log.Printf("failed to invalidate customer cache: %v", err)
	}
	if err := s.cache.InvalidateMerchant(ctx, merchantID); err != nil {
		log.Printf("failed to invalidate merchant cache: %v", err)
	}
}
