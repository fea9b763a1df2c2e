package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taqsit/internal/models"
	"taqsit/internal/repositories/repositorytest"
)

func newTestService(t *testing.T) (Service, *repositorytest.Store, *repositorytest.UserStore) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	store := repositorytest.NewStore()
	users := repositorytest.NewUserStore()
	return NewService(users, store), store, users
}

func customerInput() RegisterCustomerInput {
	return RegisterCustomerInput{
		Email:      "sara@example.com",
		Password:   "str0ng-pass!",
		FullName:   "Sara Ahmed",
		Phone:      "0501234567",
		NationalID: "1234567890",
		City:       "Riyadh",
	}
}

func TestRegisterCustomer(t *testing.T) {
	t.Run("new account starts unapproved with the default limit", func(t *testing.T) {
		svc, store, _ := newTestService(t)

		user, customer, err := svc.RegisterCustomer(customerInput())
		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, user.Role)
		assert.False(t, customer.IsApproved)
		assert.Equal(t, customer.CreditLimit, customer.AvailableLimit)
		assert.Zero(t, customer.UsedLimit)

		stored, err := store.Customers().GetByNationalID("1234567890")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.UserID)
	})

	t.Run("duplicate national id", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, _, err := svc.RegisterCustomer(customerInput())
		require.NoError(t, err)

		dup := customerInput()
		dup.Email = "other@example.com"
		dup.Phone = "0509999999"
		_, _, err = svc.RegisterCustomer(dup)
		assert.ErrorIs(t, err, ErrDuplicateAccount)
	})

	t.Run("short password", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		input := customerInput()
		input.Password = "short"
		_, _, err := svc.RegisterCustomer(input)
		assert.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestRegisterMerchant(t *testing.T) {
	svc, store, _ := newTestService(t)

	input := RegisterMerchantInput{
		Email:                  "shop@example.com",
		Password:               "str0ng-pass!",
		FullName:               "Omar Khalid",
		Phone:                  "0557654321",
		BusinessName:           "Nour Electronics",
		CommercialRegistration: "CR-1001",
		City:                   "Jeddah",
	}
	user, merchant, err := svc.RegisterMerchant(input)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMerchant, user.Role)
	assert.False(t, merchant.IsApproved)
	assert.Zero(t, merchant.Balance)

	stored, err := store.Merchants().GetByCommercialRegistration("CR-1001")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.UserID)

	_, _, err = svc.RegisterMerchant(input)
	assert.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.RegisterCustomer(customerInput())
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		user, access, refresh, err := svc.Login("sara@example.com", "", "str0ng-pass!")
		require.NoError(t, err)
		assert.Equal(t, "sara@example.com", user.Email)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
	})

	t.Run("by phone", func(t *testing.T) {
		_, access, _, err := svc.Login("", "0501234567", "str0ng-pass!")
		require.NoError(t, err)
		assert.NotEmpty(t, access)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login("sara@example.com", "", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, _, _, err := svc.Login("nobody@example.com", "", "str0ng-pass!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestTokenLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	user, _, err := svc.RegisterCustomer(customerInput())
	require.NoError(t, err)

	_, _, refresh, err := svc.Login("sara@example.com", "", "str0ng-pass!")
	require.NoError(t, err)

	access2, refresh2, err := svc.RefreshTokens(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEmpty(t, refresh2)

	// Logout bumps the token version; old refresh tokens die with it.
	require.NoError(t, svc.Logout(user.ID))
	_, _, err = svc.RefreshTokens(refresh2)
	assert.ErrorIs(t, err, ErrInvalidToken)

	version, err := svc.GetUserTokenVersion(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
