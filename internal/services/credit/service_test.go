package credit

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

func newTestService(store *repositorytest.Store, users *repositorytest.UserStore) Service {
	return NewService(store, users, nil, Config{Now: func() time.Time { return testNow }})
}

func TestApproveCustomer(t *testing.T) {
	store := repositorytest.NewStore()
	customer := store.SeedCustomer(models.Customer{
		UserID: 10, NationalID: "1234567890", CreditLimit: 5000, AvailableLimit: 5000,
	})
	svc := newTestService(store, nil)

	approved, err := svc.ApproveCustomer(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, testNow, *approved.ApprovedAt)

	_, err = svc.ApproveCustomer(context.Background(), customer.ID)
	assert.ErrorIs(t, err, ErrAlreadyApproved)

	_, err = svc.ApproveCustomer(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResizeLimit(t *testing.T) {
	seed := func(t *testing.T) (*repositorytest.Store, models.Customer, Service) {
		t.Helper()
		store := repositorytest.NewStore()
		customer := store.SeedCustomer(models.Customer{
			UserID:         10,
			NationalID:     "1234567890",
			CreditLimit:    5000,
			AvailableLimit: 3000,
			UsedLimit:      2000,
			IsApproved:     true,
		})
		return store, customer, newTestService(store, nil)
	}

	t.Run("grow adds headroom", func(t *testing.T) {
		_, customer, svc := seed(t)
		resized, err := svc.ResizeLimit(context.Background(), customer.ID, 8000)
		require.NoError(t, err)
		assert.Equal(t, 8000.0, resized.CreditLimit)
		assert.Equal(t, 6000.0, resized.AvailableLimit)
		assert.Equal(t, 2000.0, resized.UsedLimit)
	})

	t.Run("shrink below usage clamps available to zero", func(t *testing.T) {
		_, customer, svc := seed(t)
		resized, err := svc.ResizeLimit(context.Background(), customer.ID, 1000)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, resized.CreditLimit)
		assert.Zero(t, resized.AvailableLimit)
		// Outstanding debt survives the shrink untouched.
		assert.Equal(t, 2000.0, resized.UsedLimit)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, customer, svc := seed(t)
		_, err := svc.ResizeLimit(context.Background(), customer.ID, -1)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, _, svc := seed(t)
		_, err := svc.ResizeLimit(context.Background(), 9999, 1000)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLookupByNationalID(t *testing.T) {
	store := repositorytest.NewStore()
	users := repositorytest.NewUserStore()
	user := users.SeedUser(models.User{
		Email: "sara@example.com", FullName: "Sara Ahmed", Phone: "0501234567", Role: models.RoleCustomer,
	})
	store.SeedCustomer(models.Customer{
		UserID: user.ID, NationalID: "1234567890", CreditLimit: 5000, AvailableLimit: 5000, IsApproved: true,
	})
	svc := newTestService(store, users)

	profile, err := svc.LookupByNationalID(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "Sara Ahmed", profile.FullName)
	assert.Equal(t, "0501234567", profile.Phone)
	assert.Equal(t, 5000.0, profile.Customer.AvailableLimit)

	_, err = svc.LookupByNationalID(context.Background(), "0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetAccount(t *testing.T) {
	store := repositorytest.NewStore()
	customer := store.SeedCustomer(models.Customer{
		UserID: 10, NationalID: "1234567890", CreditLimit: 5000, AvailableLimit: 4000, UsedLimit: 1000,
	})
	svc := newTestService(store, nil)

	account, err := svc.GetAccount(context.Background(), customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, account.ID)
	assert.Equal(t, 4000.0, account.AvailableLimit)

	_, err = svc.GetAccount(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCustomers(t *testing.T) {
	store := repositorytest.NewStore()
	store.SeedCustomer(models.Customer{UserID: 10, NationalID: "1", IsApproved: true})
	store.SeedCustomer(models.Customer{UserID: 11, NationalID: "2", IsApproved: false})
	store.SeedCustomer(models.Customer{UserID: 12, NationalID: "3", IsApproved: true})
	svc := newTestService(store, nil)

	all, total, err := svc.ListCustomers(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	approved := true
	onlyApproved, total, err := svc.ListCustomers(context.Background(), &approved, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, onlyApproved, 2)
}
