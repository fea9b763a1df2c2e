package repositories

import (
	"errors"
	"fmt"

	"taqsit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(merchant *models.Merchant) error {
	if err := r.db.Create(merchant).Error; err != nil {
		return fmt.Errorf("failed to create merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) GetByID(id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByIDForUpdate(id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&merchant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to lock merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByUserID(userID uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.Where("user_id = ?", userID).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByCommercialRegistration(cr string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.Where("commercial_registration = ?", cr).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return &merchant, nil
}

func (r *merchantRepository) Update(merchant *models.Merchant) error {
	if err := r.db.Save(merchant).Error; err != nil {
		return fmt.Errorf("failed to update merchant: %w", err)
	}
	return nil
}

func (r *merchantRepository) ListPaginated(approved *bool, limit, offset int) ([]models.Merchant, int64, error) {
	query := r.db.Model(&models.Merchant{})
	if approved != nil {
		query = query.Where("is_approved = ?", *approved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count merchants: %w", err)
	}

	var merchants []models.Merchant
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&merchants).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list merchants: %w", err)
	}
	return merchants, total, nil
}
