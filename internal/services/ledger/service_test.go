package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taqsit/internal/models"
	"taqsit/internal/repositories/repositorytest"
)

var testNow = time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *repositorytest.Store) Service {
	return NewService(store, nil, Config{Now: func() time.Time { return testNow }})
}

func TestBalanceSummary(t *testing.T) {
	store := repositorytest.NewStore()
	merchant := store.SeedMerchant(models.Merchant{
		UserID:                 20,
		BusinessName:           "Nour Electronics",
		CommercialRegistration: "CR-1001",
		Balance:                1950,
		TotalEarnings:          3000,
		TotalFeesPaid:          25,
		IsApproved:             true,
	})
	customer := store.SeedCustomer(models.Customer{
		UserID: 10, NationalID: "1234567890", CreditLimit: 10000, AvailableLimit: 7000, UsedLimit: 3000, IsApproved: true,
	})

	seed := func(ref string, status models.RequestStatus) {
		store.SeedRequest(models.PurchaseRequest{
			ReferenceNumber: ref,
			CustomerID:      customer.ID,
			MerchantID:      merchant.ID,
			Amount:          1000,
			Status:          status,
			ExpiresAt:       testNow.Add(models.RequestTTL),
		})
	}
	seed("TXN-1", models.RequestStatusPending)
	seed("TXN-2", models.RequestStatusPending)
	seed("TXN-3", models.RequestStatusApproved)
	seed("TXN-4", models.RequestStatusCompleted)
	seed("TXN-5", models.RequestStatusRejected)

	svc := newTestService(store)
	summary, err := svc.BalanceSummary(context.Background(), merchant.UserID)
	require.NoError(t, err)

	assert.Equal(t, 1950.0, summary.Balance)
	assert.Equal(t, 3000.0, summary.TotalEarnings)
	assert.Equal(t, 25.0, summary.TotalFeesPaid)
	assert.Equal(t, int64(2), summary.PendingRequests)
	assert.Equal(t, int64(1), summary.ApprovedRequests)
	assert.Equal(t, int64(1), summary.CompletedRequests)
}

func TestApproveMerchant(t *testing.T) {
	store := repositorytest.NewStore()
	merchant := store.SeedMerchant(models.Merchant{
		UserID: 20, BusinessName: "Nour Electronics", CommercialRegistration: "CR-1001",
	})
	svc := newTestService(store)

	approved, err := svc.ApproveMerchant(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedAt)

	_, err = svc.ApproveMerchant(context.Background(), merchant.ID)
	assert.ErrorIs(t, err, ErrAlreadyApproved)

	_, err = svc.ApproveMerchant(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMerchant(t *testing.T) {
	store := repositorytest.NewStore()
	merchant := store.SeedMerchant(models.Merchant{
		UserID: 20, BusinessName: "Nour Electronics", CommercialRegistration: "CR-1001", Balance: 500,
	})
	svc := newTestService(store)

	got, err := svc.GetMerchant(context.Background(), merchant.UserID)
	require.NoError(t, err)
	assert.Equal(t, merchant.ID, got.ID)
	assert.Equal(t, 500.0, got.Balance)

	_, err = svc.GetMerchant(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMerchants(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedMerchant(models.Merchant{UserID: 20, CommercialRegistration: "CR-1", IsApproved: true})
	store.SeedMerchant(models.Merchant{UserID: 21, CommercialRegistration: "CR-2"})
	svc := newTestService(store)

	pending := false
	onlyPending, total, err := svc.ListMerchants(context.Background(), &pending, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, "CR-2", onlyPending[0].CommercialRegistration)
}
