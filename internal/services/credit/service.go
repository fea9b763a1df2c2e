// Package credit manages customer credit accounts: the three-field
// limit ledger, admin approval and limit resizing.
package credit

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
	ErrNotFound        = errors.New("customer not found")
	ErrInvalidLimit    = errors.New("credit limit must not be negative")
	ErrAlreadyApproved = errors.New("customer is already approved")
)

// CustomerProfile combines the credit account with the owning user's
// contact details. Merchants see this when they look a customer up
// before creating a purchase request.
type CustomerProfile struct {
	Customer *models.Customer `json:"customer"`
	FullName string           `json:"full_name"`
	Phone    string           `json:"phone"`
}

// Cache is the customer read-through surface.
type Cache interface {
	GetCustomer(ctx context.Context, customerID uint) (*models.Customer, error)
	CacheCustomer(ctx context.Context, customer *models.Customer) error
	InvalidateCustomer(ctx context.Context, customerID uint) error
}

// NoopCache is used when no cache is configured.
type NoopCache struct{}

func (NoopCache) GetCustomer(context.Context, uint) (*models.Customer, error) { return nil, nil }
func (NoopCache) CacheCustomer(context.Context, *models.Customer) error       { return nil }
func (NoopCache) InvalidateCustomer(context.Context, uint) error              { return nil }

// Config holds credit service settings.
type Config struct {
	Now func() time.Time
}

// Service exposes credit account reads and the admin-side mutations.
type Service interface {
	// GetAccount returns the caller's own credit account.
	GetAccount(ctx context.Context, customerUserID uint) (*models.Customer, error)

	// GetByID returns a credit account by customer id, cache first.
	GetByID(ctx context.Context, customerID uint) (*models.Customer, error)

	// LookupByNationalID resolves a customer for a merchant about to
	// create a purchase request.
	LookupByNationalID(ctx context.Context, nationalID string) (*CustomerProfile, error)

	// ApproveCustomer activates a pending account.
	ApproveCustomer(ctx context.Context, customerID uint) (*models.Customer, error)

	// ResizeLimit sets a new total credit limit. Shrinking below the
	// current usage clamps the available limit to zero; the used limit
	// is never touched.
	ResizeLimit(ctx context.Context, customerID uint, newLimit float64) (*models.Customer, error)

	ListCustomers(ctx context.Context, approved *bool, limit, offset int) ([]models.Customer, int64, error)
}

type service struct {
	store  repositories.LedgerStore
	users  repositories.UserRepository
	cache  Cache
	config Config
}

// NewService creates a new credit account service.
func NewService(store repositories.LedgerStore, users repositories.UserRepository, cache Cache, config Config) Service {
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
		users:  users,
		cache:  cache,
		config: config,
	}
}

func (s *service) GetAccount(ctx context.Context, customerUserID uint) (*models.Customer, error) {
	customer, err := s.store.Customers().GetByUserID(customerUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomerNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *service) GetByID(ctx context.Context, customerID uint) (*models.Customer, error) {
	if cached, err := s.cache.GetCustomer(ctx, customerID); err == nil && cached != nil {
		return cached, nil
	}

	customer, err := s.store.Customers().GetByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomerNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.cache.CacheCustomer(ctx, customer); err != nil {
		log.Printf("failed to cache customer %d: %v", customerID, err)
	}
	return customer, nil
}

func (s *service) LookupByNationalID(ctx context.Context, nationalID string) (*CustomerProfile, error) {
	customer, err := s.store.Customers().GetByNationalID(nationalID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomerNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	profile := &CustomerProfile{Customer: customer}
	if s.users != nil {
		if user, err := s.users.GetByID(customer.UserID); err == nil {
			profile.FullName = user.FullName
			profile.Phone = user.Phone
		}
	}
	return profile, nil
}

func (s *service) ApproveCustomer(ctx context.Context, customerID uint) (*models.Customer, error) {
	customer, err := s.store.Customers().GetByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrCustomerNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if customer.IsApproved {
		return nil, ErrAlreadyApproved
	}

	now := s.config.Now()
	customer.IsApproved = true
	customer.ApprovedAt = &now
	if err := s.store.Customers().Update(customer); err != nil {
		return nil, err
	}

	s.invalidate(ctx, customerID)
	log.Printf("customer approved: id=%d limit=%.2f", customerID, customer.CreditLimit)
	return customer, nil
}

func (s *service) ResizeLimit(ctx context.Context, customerID uint, newLimit float64) (*models.Customer, error) {
	if newLimit < 0 {
		return nil, ErrInvalidLimit
	}

	err := s.store.ExecuteInTransaction(func(tx repositories.LedgerStore) error {
		customer, err := tx.Customers().GetByIDForUpdate(customerID)
		if err != nil {
			if errors.Is(err, repositories.ErrCustomerNotFound) {
				return ErrNotFound
			}
			return err
		}
		customer.Resize(newLimit)
		return tx.Customers().Update(customer)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, customerID)

	customer, err := s.store.Customers().GetByID(customerID)
	if err != nil {
		return nil, err
	}
	log.Printf("credit limit resized: customer=%d limit=%.2f available=%.2f",
		customerID, customer.CreditLimit, customer.AvailableLimit)
	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context, approved *bool, limit, offset int) ([]models.Customer, int64, error) {
	return s.store.Customers().ListPaginated(approved, limit, offset)
}

func (s *service) invalidate(ctx context.Context, customerID uint) {
	if err := s.cache.InvalidateCustomer(ctx, customerID); err != nil {
		log.Printf("failed to invalidate customer cache: %v", err)
	}
}
