package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taqsit/internal/models"
	"taqsit/internal/repositories/repositorytest"
)

var testNow = time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

func newTestService(store *repositorytest.Store) Service {
	return NewService(store, nil, Config{
		FeePercent: 2.5,
		Now:        func() time.Time { return testNow },
	})
}

func seedAccounts(store *repositorytest.Store) (models.Customer, models.Merchant) {
	customer := store.SeedCustomer(models.Customer{
		UserID:         10,
		NationalID:     "1234567890",
		CreditLimit:    5000,
		AvailableLimit: 5000,
		IsApproved:     true,
	})
	merchant := store.SeedMerchant(models.Merchant{
		UserID:                 20,
		BusinessName:           "Nour Electronics",
		CommercialRegistration: "CR-1001",
		IsApproved:             true,
	})
	return customer, merchant
}

func seedPendingRequest(store *repositorytest.Store, customer models.Customer, merchant models.Merchant, amount float64) models.PurchaseRequest {
	fee, receives := models.CalculateFee(amount, 2.5)
	return store.SeedRequest(models.PurchaseRequest{
		ReferenceNumber:  "TXN-TEST-1",
		CustomerID:       customer.ID,
		MerchantID:       merchant.ID,
		Amount:           amount,
		FeePercent:       2.5,
		FeeAmount:        fee,
		MerchantReceives: receives,
		Status:           models.RequestStatusPending,
		ExpiresAt:        testNow.Add(models.RequestTTL),
	})
}

func TestCreate(t *testing.T) {
	t.Run("snapshots fee and sets expiry", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		svc := newTestService(store)

		request, err := svc.Create(context.Background(), merchant.UserID, CreateInput{
			CustomerID:  customer.ID,
			Amount:      1000,
			ProductName: "Laptop",
		})
		require.NoError(t, err)

		assert.Equal(t, models.RequestStatusPending, request.Status)
		assert.Equal(t, 2.5, request.FeePercent)
		assert.Equal(t, 25.0, request.FeeAmount)
		assert.Equal(t, 975.0, request.MerchantReceives)
		assert.Equal(t, testNow.Add(24*time.Hour), request.ExpiresAt)
		assert.NotEmpty(t, request.ReferenceNumber)

		// Creation only checks capacity; nothing is reserved yet.
		stored, err := store.Customers().GetByID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 5000.0, stored.AvailableLimit)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		svc := newTestService(store)

		_, err := svc.Create(context.Background(), merchant.UserID, CreateInput{CustomerID: customer.ID, Amount: 0})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects unapproved customer", func(t *testing.T) {
		store := repositorytest.NewStore()
		_, merchant := seedAccounts(store)
		unapproved := store.SeedCustomer(models.Customer{
			UserID: 11, NationalID: "999", CreditLimit: 5000, AvailableLimit: 5000,
		})
		svc := newTestService(store)

		_, err := svc.Create(context.Background(), merchant.UserID, CreateInput{CustomerID: unapproved.ID, Amount: 100})
		assert.ErrorIs(t, err, ErrCustomerNotApproved)
	})

	t.Run("rejects amount over available limit", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		svc := newTestService(store)

		_, err := svc.Create(context.Background(), merchant.UserID, CreateInput{CustomerID: customer.ID, Amount: 5000.01})
		assert.ErrorIs(t, err, ErrInsufficientLimit)
	})

	t.Run("unknown customer", func(t *testing.T) {
		store := repositorytest.NewStore()
		_, merchant := seedAccounts(store)
		svc := newTestService(store)

		_, err := svc.Create(context.Background(), merchant.UserID, CreateInput{CustomerID: 9999, Amount: 100})
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}

func TestApprove(t *testing.T) {
	t.Run("reserves limit, credits merchant and creates plan", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		request := seedPendingRequest(store, customer, merchant, 1000)
		svc := newTestService(store)

		approved, err := svc.Approve(context.Background(), customer.UserID, request.ID, 4)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, approved.Status)
		require.NotNil(t, approved.ApprovedAt)

		cust, err := store.Customers().GetByID(customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 4000.0, cust.AvailableLimit)
		assert.Equal(t, 1000.0, cust.UsedLimit)

		// The merchant is credited with the gross amount; the fee comes
		// out at completion, not here.
		merch, err := store.Merchants().GetByID(merchant.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, merch.Balance)
		assert.Equal(t, 0.0, merch.TotalFeesPaid)

		plan, err := store.Plans().GetByPurchaseRequestID(request.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, plan.MonthCount)
		assert.Len(t, plan.Installments, 4)
		assert.Equal(t, 250.0, plan.MonthlyAmount)
		assert.Equal(t, 1000.0, plan.RemainingAmount)
	})

	t.Run("rejects invalid month count", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		request := seedPendingRequest(store, customer, merchant, 1000)
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), customer.UserID, request.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidMonths)
		_, err = svc.Approve(context.Background(), customer.UserID, request.ID, 29)
		assert.ErrorIs(t, err, ErrInvalidMonths)
	})

	t.Run("only the owning customer can approve", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		other := store.SeedCustomer(models.Customer{
			UserID: 12, NationalID: "555", CreditLimit: 5000, AvailableLimit: 5000, IsApproved: true,
		})
		request := seedPendingRequest(store, customer, merchant, 1000)
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), other.UserID, request.ID, 4)
		assert.ErrorIs(t, err, ErrWrongOwner)
	})

	t.Run("expired request is persisted as expired", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		request := seedPendingRequest(store, customer, merchant, 1000)
		request.ExpiresAt = testNow.Add(-time.Minute)
		require.NoError(t, store.Purchases().Update(&request))
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), customer.UserID, request.ID, 4)
		assert.ErrorIs(t, err, ErrExpired)

		stored, err := store.Purchases().GetByID(request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusExpired, stored.Status)
	})

	t.Run("insufficient limit at approval rolls everything back", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		request := seedPendingRequest(store, customer, merchant, 1000)

		// The available limit dropped between creation and approval.
		cust, err := store.Customers().GetByID(customer.ID)
		require.NoError(t, err)
		cust.AvailableLimit = 500
		cust.UsedLimit = 4500
		require.NoError(t, store.Customers().Update(cust))

		svc := newTestService(store)
		_, err = svc.Approve(context.Background(), customer.UserID, request.ID, 4)
		assert.ErrorIs(t, err, ErrInsufficientLimit)

		stored, err := store.Purchases().GetByID(request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, stored.Status)

		merch, err := store.Merchants().GetByID(merchant.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, merch.Balance)
	})

	t.Run("non-pending request", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		request := seedPendingRequest(store, customer, merchant, 1000)
		request.Status = models.RequestStatusRejected
		require.NoError(t, store.Purchases().Update(&request))
		svc := newTestService(store)

		_, err := svc.Approve(context.Background(), customer.UserID, request.ID, 4)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}

func TestReject(t *testing.T) {
	store := repositorytest.NewStore()
	customer, merchant := seedAccounts(store)
	request := seedPendingRequest(store, customer, merchant, 1000)
	svc := newTestService(store)

	rejected, err := svc.Reject(context.Background(), customer.UserID, request.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectedAt)

	// Rejection is terminal.
	_, err = svc.Approve(context.Background(), customer.UserID, request.ID, 4)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancel(t *testing.T) {
	t.Run("merchant cancels own pending request", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		request := seedPendingRequest(store, customer, merchant, 1000)
		svc := newTestService(store)

		cancelled, err := svc.Cancel(context.Background(), merchant.UserID, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusCancelled, cancelled.Status)
	})

	t.Run("another merchant cannot cancel", func(t *testing.T) {
		store := repositorytest.NewStore()
		customer, merchant := seedAccounts(store)
		other := store.SeedMerchant(models.Merchant{
			UserID: 21, BusinessName: "Other Shop", CommercialRegistration: "CR-2002", IsApproved: true,
		})
		request := seedPendingRequest(store, customer, merchant, 1000)
		svc := newTestService(store)

		_, err := svc.Cancel(context.Background(), other.UserID, request.ID)
		assert.ErrorIs(t, err, ErrWrongOwner)
	})
}

func TestListAll(t *testing.T) {
	store := repositorytest.NewStore()
	customer, merchant := seedAccounts(store)

	seedPendingRequest(store, customer, merchant, 100)
	seedPendingRequest(store, customer, merchant, 200)
	rejected := seedPendingRequest(store, customer, merchant, 300)
	rejected.Status = models.RequestStatusRejected
	require.NoError(t, store.Purchases().Update(&rejected))

	svc := newTestService(store)

	all, total, err := svc.ListAll(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	pending := models.RequestStatusPending
	filtered, total, err := svc.ListAll(context.Background(), &pending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, filtered, 2)

	paged, total, err := svc.ListAll(context.Background(), nil, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, paged, 1)
}

func TestSweepExpired(t *testing.T) {
	store := repositorytest.NewStore()
	customer, merchant := seedAccounts(store)

	expired := seedPendingRequest(store, customer, merchant, 100)
	expired.ExpiresAt = testNow.Add(-time.Hour)
	require.NoError(t, store.Purchases().Update(&expired))

	fresh := seedPendingRequest(store, customer, merchant, 200)

	svc := newTestService(store)
	count, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	storedExpired, err := store.Purchases().GetByID(expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusExpired, storedExpired.Status)

	storedFresh, err := store.Purchases().GetByID(fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, storedFresh.Status)

	// Running again finds nothing new.
	count, err = svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
