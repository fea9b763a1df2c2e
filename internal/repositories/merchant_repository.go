package repositories

import (
	"taqsit/internal/models"
)

// MerchantRepository defines merchant aggregate database operations.
type MerchantRepository interface {
	Create(merchant *models.Merchant) error
	GetByID(id uint) (*models.Merchant, error)

	// GetByIDForUpdate loads a merchant under a row lock so concurrent
	// balance mutations serialize. Only meaningful inside a
	// transaction.
	GetByIDForUpdate(id uint) (*models.Merchant, error)
	GetByUserID(userID uint) (*models.Merchant, error)
	GetByCommercialRegistration(cr string) (*models.Merchant, error)
	Update(merchant *models.Merchant) error
	ListPaginated(approved *bool, limit, offset int) ([]models.Merchant, int64, error)
}
