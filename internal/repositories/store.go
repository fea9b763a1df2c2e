package repositories

import (
	"fmt"

	"gorm.io/gorm"
)

// LedgerStore bundles the aggregate repositories behind a single
// transaction boundary. Multi-aggregate operations (purchase approval,
// installment payment) run through ExecuteInTransaction so a failure
// partway rolls everything back; no caller ever observes a
// half-applied reservation or ledger credit.
type LedgerStore interface {
	Customers() CustomerRepository
	Merchants() MerchantRepository
	Purchases() PurchaseRepository
	Plans() PlanRepository

	// ExecuteInTransaction runs fn against a store bound to a single
	// database transaction, committing on nil and rolling back on error.
	ExecuteInTransaction(fn func(LedgerStore) error) error
}

type ledgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates the store over a gorm connection.
func NewLedgerStore(db *gorm.DB) LedgerStore {
	return &ledgerStore{db: db}
}

func (s *ledgerStore) Customers() CustomerRepository { return &customerRepository{db: s.db} }
func (s *ledgerStore) Merchants() MerchantRepository { return &merchantRepository{db: s.db} }
func (s *ledgerStore) Purchases() PurchaseRepository { return &purchaseRepository{db: s.db} }
func (s *ledgerStore) Plans() PlanRepository         { return &planRepository{db: s.db} }

func (s *ledgerStore) ExecuteInTransaction(fn func(LedgerStore) error) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerStore{db: tx})
	})
	if err != nil {
		return fmt.Errorf("ledger transaction failed: %w", err)
	}
	return nil
}
