// Package ledger exposes the merchant side of the settlement ledger:
// the running balance, earnings and fee totals, and admin approval of
// merchant accounts.
package ledger

import (
	"context"
	"errors"
	"log"
	"time"

	"taqsit/internal/models"
	"taqsit/internal/repositories"
)

// Service errors
var (
	ErrNotFound        = errors.New("merchant not found")
	ErrAlreadyApproved = errors.New("merchant is already approved")
)

// BalanceSummary is the merchant dashboard view: the settlement
// figures plus request counts by lifecycle stage.
type BalanceSummary struct {
	Balance       float64 `json:"balance"`
	TotalEarnings float64 `json:"total_earnings"`
	TotalFeesPaid float64 `json:"total_fees_paid"`

	PendingRequests   int64 `json:"pending_requests"`
	ApprovedRequests  int64 `json:"approved_requests"`
	CompletedRequests int64 `json:"completed_requests"`
}

// Cache is the merchant read-through surface.
type Cache interface {
	GetMerchant(ctx context.Context, merchantID uint) (*models.Merchant, error)
	CacheMerchant(ctx context.Context, merchant *models.Merchant) error
	InvalidateMerchant(ctx context.Context, merchantID uint) error
}

// NoopCache is used when no cache is configured.
type NoopCache struct{}

func (NoopCache) GetMerchant(context.Context, uint) (*models.Merchant, error) { return nil, nil }
func (NoopCache) CacheMerchant(context.Context, *models.Merchant) error       { return nil }
func (NoopCache) InvalidateMerchant(context.Context, uint) error              { return nil }

// Config holds merchant ledger service settings.
type Config struct {
	Now func() time.Time
}

// Service exposes merchant ledger reads and the admin-side mutations.
type Service interface {
	// GetMerchant returns the caller's own merchant account.
	GetMerchant(ctx context.Context, merchantUserID uint) (*models.Merchant, error)

	// GetByID returns a merchant by id, cache first.
	GetByID(ctx context.Context, merchantID uint) (*models.Merchant, error)

	// BalanceSummary aggregates the settlement figures and the request
	// counts for the merchant dashboard.
	BalanceSummary(ctx context.Context, merchantUserID uint) (*BalanceSummary, error)

	// ApproveMerchant activates a pending merchant account.
	ApproveMerchant(ctx context.Context, merchantID uint) (*models.Merchant, error)

	ListMerchants(ctx context.Context, approved *bool, limit, offset int) ([]models.Merchant, int64, error)
}

type service struct {
	store  repositories.LedgerStore
	cache  Cache
	config Config
}

// NewService creates a new merchant ledger service.
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

func (s *service) GetMerchant(ctx context.Context, merchantUserID uint) (*models.Merchant, error) {
	merchant, err := s.store.Merchants().GetByUserID(merchantUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return merchant, nil
}

func (s *service) GetByID(ctx context.Context, merchantID uint) (*models.Merchant, error) {
	if cached, err := s.cache.GetMerchant(ctx, merchantID); err == nil && cached != nil {
		return cached, nil
	}

	merchant, err := s.store.Merchants().GetByID(merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.cache.CacheMerchant(ctx, merchant); err != nil {
		log.Printf("failed to cache merchant %d: %v", merchantID, err)
	}
	return merchant, nil
}

func (s *service) BalanceSummary(ctx context.Context, merchantUserID uint) (*BalanceSummary, error) {
	merchant, err := s.GetMerchant(ctx, merchantUserID)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{
		Balance:       merchant.Balance,
		TotalEarnings: merchant.TotalEarnings,
		TotalFeesPaid: merchant.TotalFeesPaid,
	}

	counts := []struct {
		status models.RequestStatus
		dest   *int64
	}{
		{models.RequestStatusPending, &summary.PendingRequests},
		{models.RequestStatusApproved, &summary.ApprovedRequests},
		{models.RequestStatusCompleted, &summary.CompletedRequests},
	}
	for _, c := range counts {
		n, err := s.store.Purchases().CountByMerchantAndStatus(merchant.ID, c.status)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}
	return summary, nil
}

func (s *service) ApproveMerchant(ctx context.Context, merchantID uint) (*models.Merchant, error) {
	merchant, err := s.store.Merchants().GetByID(merchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if merchant.IsApproved {
		return nil, ErrAlreadyApproved
	}

	now := s.config.Now()
	merchant.IsApproved = true
	merchant.ApprovedAt = &now
	if err := s.store.Merchants().Update(merchant); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateMerchant(ctx, merchantID); err != nil {
		log.Printf("failed to invalidate merchant cache: %v", err)
	}
	log.Printf("merchant approved: id=%d business=%s", merchantID, merchant.BusinessName)
	return merchant, nil
}

func (s *service) ListMerchants(ctx context.Context, approved *bool, limit, offset int) ([]models.Merchant, int64, error) {
	return s.store.Merchants().ListPaginated(approved, limit, offset)
}
