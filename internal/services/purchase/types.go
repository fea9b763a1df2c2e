package purchase

import (
	"context"
	"time"

	"taqsit/internal/models"
)

// CreateInput is a merchant's purchase request for a customer.
type CreateInput struct {
	CustomerID  uint
	Amount      float64
	Description string
	ProductName string
}

// Config holds purchase service settings. Zero values fall back to the
// platform defaults in NewService.
type Config struct {
	// FeePercent is the platform fee rate snapshotted onto each new
	// request.
	FeePercent float64
	// RequestTTL is how long a pending request stays approvable.
	RequestTTL time.Duration
	// Now is the clock; injectable for deterministic expiry tests.
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

// Service is the purchase request lifecycle: creation against the
// customer's credit capacity, the customer's approve/reject decision,
// merchant cancellation, and expiry.
type Service interface {
	Create(ctx context.Context, merchantUserID uint, input CreateInput) (*models.PurchaseRequest, error)

	// Approve atomically reserves the customer's limit, credits the
	// merchant with the gross amount and creates the installment plan.
	Approve(ctx context.Context, customerUserID, requestID uint, months int) (*models.PurchaseRequest, error)

	Reject(ctx context.Context, customerUserID, requestID uint, reason string) (*models.PurchaseRequest, error)
	Cancel(ctx context.Context, merchantUserID, requestID uint) (*models.PurchaseRequest, error)

	Get(ctx context.Context, requestID uint) (*models.PurchaseRequest, error)
	ListForCustomer(ctx context.Context, customerUserID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error)
	ListForMerchant(ctx context.Context, merchantUserID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error)
	ListPendingForCustomer(ctx context.Context, customerUserID uint) ([]models.PurchaseRequest, error)
	ListAll(ctx context.Context, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, int64, error)

	// SweepExpired flips pending requests past their expiry; returns
	// the number affected.
	SweepExpired(ctx context.Context) (int64, error)
}
