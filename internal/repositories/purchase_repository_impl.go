package repositories

import (
	"errors"
	"fmt"
	"time"

	"taqsit/internal/models"

	"gorm.io/gorm"
)

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(request *models.PurchaseRequest) error {
	if err := r.db.Create(request).Error; err != nil {
		return fmt.Errorf("failed to create purchase request: %w", err)
	}
	return nil
}

func (r *purchaseRepository) GetByID(id uint) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	if err := r.db.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get purchase request: %w", err)
	}
	return &request, nil
}

func (r *purchaseRepository) GetByReference(reference string) (*models.PurchaseRequest, error) {
	var request models.PurchaseRequest
	if err := r.db.Where("reference_number = ?", reference).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get purchase request: %w", err)
	}
	return &request, nil
}

func (r *purchaseRepository) Update(request *models.PurchaseRequest) error {
	if err := r.db.Save(request).Error; err != nil {
		return fmt.Errorf("failed to update purchase request: %w", err)
	}
	return nil
}

func (r *purchaseRepository) UpdateStatus(id uint, from, to models.RequestStatus) error {
	result := r.db.Model(&models.PurchaseRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update request status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *purchaseRepository) ListByCustomer(customerID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error) {
	query := r.db.Where("customer_id = ?", customerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var requests []models.PurchaseRequest
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list customer requests: %w", err)
	}
	return requests, nil
}

func (r *purchaseRepository) ListByMerchant(merchantID uint, status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, error) {
	query := r.db.Where("merchant_id = ?", merchantID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var requests []models.PurchaseRequest
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list merchant requests: %w", err)
	}
	return requests, nil
}

func (r *purchaseRepository) ListPendingForCustomer(customerID uint, now time.Time) ([]models.PurchaseRequest, error) {
	var requests []models.PurchaseRequest
	err := r.db.
		Where("customer_id = ? AND status = ? AND expires_at > ?", customerID, models.RequestStatusPending, now).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

func (r *purchaseRepository) ListPaginated(status *models.RequestStatus, limit, offset int) ([]models.PurchaseRequest, int64, error) {
	query := r.db.Model(&models.PurchaseRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	var requests []models.PurchaseRequest
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	return requests, total, nil
}

func (r *purchaseRepository) CountByMerchantAndStatus(merchantID uint, status models.RequestStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.PurchaseRequest{}).
		Where("merchant_id = ? AND status = ?", merchantID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count merchant requests: %w", err)
	}
	return count, nil
}

func (r *purchaseRepository) ExpirePending(now time.Time) (int64, error) {
	// The status guard in the WHERE clause makes this safe to run
	// concurrently with approvals: only still-pending rows flip.
	result := r.db.Model(&models.PurchaseRequest{}).
		Where("status = ? AND expires_at < ?", models.RequestStatusPending, now).
		Update("status", models.RequestStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire pending requests: %w", result.Error)
	}
	return result.RowsAffected, nil
}
