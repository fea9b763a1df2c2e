package repositories

import (
	"errors"

	"taqsit/internal/models"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrDuplicateCustomer  = errors.New("customer already exists")
	ErrMerchantNotFound   = errors.New("merchant not found")
	ErrRequestNotFound    = errors.New("purchase request not found")
	ErrPlanNotFound       = errors.New("installment plan not found")
	ErrInstallmentMissing = errors.New("installment not found")
	ErrStatusConflict     = errors.New("status changed concurrently")
)

// CustomerRepository defines customer aggregate database operations.
type CustomerRepository interface {
	Create(customer *models.Customer) error
	GetByID(id uint) (*models.Customer, error)

	// GetByIDForUpdate loads a customer under a row lock so concurrent
	// limit mutations serialize. Only meaningful inside a transaction.
	GetByIDForUpdate(id uint) (*models.Customer, error)
	GetByUserID(userID uint) (*models.Customer, error)
	GetByNationalID(nationalID string) (*models.Customer, error)
	Update(customer *models.Customer) error
	ListPaginated(approved *bool, limit, offset int) ([]models.Customer, int64, error)
}
