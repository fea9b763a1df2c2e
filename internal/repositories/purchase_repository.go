package repositories

import (
	"time"

	"taqsit/internal/models"
)

// PurchaseRepository defines purchase request database operations.
// State transitions go through UpdateStatus, a compare-and-set guarded
// by the current status, so concurrent approvals of the same request
// cannot both win.
type PurchaseRepository interface {
	Create(request *models.PurchaseRequest) error
	GetByID(id uint) (*models.PurchaseRequest, error)
	GetByReference(reference string) (*models.PurchaseRequest, error)
	Update(request *models.PurchaseRequest) error

	// UpdateStatus transitions from -> to atomically; returns
	// ErrStatusConflict when the row is no longer in the from status.
	UpdateStatus(id uint, from, to models.RequestStatus) error

	ListByCustomer(customerID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error)
	ListByMerchant(merchantID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error)
	ListPendingForCustomer(customerID uint, now time.Time) ([]models.PurchaseRequest, error)
	ListPaginated(status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, int64, error)
	CountByMerchantAndStatus(merchantID uint, status models.RequestStatus) (int64, error)

	// ExpirePending flips every pending request past its expiry to
	// expired and returns the number affected. Idempotent.
	ExpirePending(now time.Time) (int64, error)
}
