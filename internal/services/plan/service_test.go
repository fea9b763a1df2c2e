package plan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taqsit/internal/models"
	"taqsit/internal/repositories/repositorytest"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    *repositorytest.Store
	svc      Service
	customer models.Customer
	merchant models.Merchant
	request  models.PurchaseRequest
	plan     models.InstallmentPlan
}

// approvedFixture seeds the state an approved purchase leaves behind:
// the customer's limit reserved, the merchant credited with the gross
// amount and a full installment schedule.
func approvedFixture(t *testing.T, amount float64, months int) *fixture {
	t.Helper()
	store := repositorytest.NewStore()

	customer := store.SeedCustomer(models.Customer{
		UserID:         10,
		NationalID:     "1234567890",
		CreditLimit:    5000,
		AvailableLimit: models.Round2(5000 - amount),
		UsedLimit:      amount,
		IsApproved:     true,
	})
	merchant := store.SeedMerchant(models.Merchant{
		UserID:                 20,
		BusinessName:           "Nour Electronics",
		CommercialRegistration: "CR-1001",
		Balance:                amount,
		TotalEarnings:          amount,
		IsApproved:             true,
	})

	fee, receives := models.CalculateFee(amount, 2.5)
	approvedAt := testNow
	request := store.SeedRequest(models.PurchaseRequest{
		ReferenceNumber:  "TXN-TEST-1",
		CustomerID:       customer.ID,
		MerchantID:       merchant.ID,
		Amount:           amount,
		FeePercent:       2.5,
		FeeAmount:        fee,
		MerchantReceives: receives,
		Status:           models.RequestStatusApproved,
		ExpiresAt:        testNow.Add(models.RequestTTL),
		ApprovedAt:       &approvedAt,
	})

	built, err := models.NewInstallmentPlan(&request, months, testNow)
	require.NoError(t, err)
	plan := store.SeedPlan(*built)

	svc := NewService(store, nil, Config{Now: func() time.Time { return testNow }})
	return &fixture{store: store, svc: svc, customer: customer, merchant: merchant, request: request, plan: plan}
}

func (f *fixture) installment(t *testing.T, number int) models.Installment {
	t.Helper()
	for _, inst := range f.plan.Installments {
		if inst.Number == number {
			return inst
		}
	}
	t.Fatalf("installment %d not found", number)
	return models.Installment{}
}

func TestPay(t *testing.T) {
	t.Run("full installment restores limit and advances counters", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		result, err := f.svc.Pay(context.Background(), f.customer.UserID, first.ID, 250)
		require.NoError(t, err)

		assert.Equal(t, 250.0, result.AmountApplied)
		assert.Equal(t, 250.0, result.LimitRestored)
		assert.Equal(t, models.InstallmentStatusPaid, result.Installment)
		assert.Equal(t, models.PlanStatusPartiallyPaid, result.Plan)
		assert.Equal(t, 750.0, result.PlanRemaining)
		assert.False(t, result.PlanCompleted)
		assert.NotEmpty(t, result.PaymentReference)

		cust, err := f.store.Customers().GetByID(f.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 4250.0, cust.AvailableLimit)
		assert.Equal(t, 750.0, cust.UsedLimit)

		plan, err := f.store.Plans().GetByID(f.plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, plan.PaymentsMade)
		assert.Equal(t, 3, plan.PaymentsRemaining)

		inst, err := f.store.Plans().GetInstallmentByID(first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InstallmentStatusPaid, inst.Status)
		require.NotNil(t, inst.PaidAt)
	})

	t.Run("partial payment leaves counters untouched", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		result, err := f.svc.Pay(context.Background(), f.customer.UserID, first.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, 100.0, result.AmountApplied)
		assert.Equal(t, models.InstallmentStatusPartiallyPaid, result.Installment)
		assert.Equal(t, 150.0, result.InstallmentDue)

		plan, err := f.store.Plans().GetByID(f.plan.ID)
		require.NoError(t, err)
		assert.Zero(t, plan.PaymentsMade)
		assert.Equal(t, 4, plan.PaymentsRemaining)

		// The second payment closes the installment and moves the
		// counter exactly once.
		result, err = f.svc.Pay(context.Background(), f.customer.UserID, first.ID, 150)
		require.NoError(t, err)
		assert.Equal(t, models.InstallmentStatusPaid, result.Installment)

		plan, err = f.store.Plans().GetByID(f.plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, plan.PaymentsMade)
	})

	t.Run("overpayment is capped at the remaining due", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		result, err := f.svc.Pay(context.Background(), f.customer.UserID, first.ID, 10000)
		require.NoError(t, err)
		assert.Equal(t, 250.0, result.AmountApplied)
		assert.Equal(t, 250.0, result.LimitRestored)

		cust, err := f.store.Customers().GetByID(f.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 4250.0, cust.AvailableLimit)
	})

	t.Run("final installment completes plan and settles the fee", func(t *testing.T) {
		f := approvedFixture(t, 1000, 2)

		_, err := f.svc.Pay(context.Background(), f.customer.UserID, f.installment(t, 1).ID, 500)
		require.NoError(t, err)

		result, err := f.svc.Pay(context.Background(), f.customer.UserID, f.installment(t, 2).ID, 500)
		require.NoError(t, err)
		assert.True(t, result.PlanCompleted)
		assert.Equal(t, models.PlanStatusPaid, result.Plan)
		assert.Zero(t, result.PlanRemaining)

		plan, err := f.store.Plans().GetByID(f.plan.ID)
		require.NoError(t, err)
		assert.NotNil(t, plan.CompletedAt)
		assert.Zero(t, plan.PaymentsRemaining)

		request, err := f.store.Purchases().GetByID(f.request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusCompleted, request.Status)
		require.NotNil(t, request.CompletedAt)

		// Gross in at approval, fee out at completion: the merchant
		// nets exactly the snapshotted receivable.
		merch, err := f.store.Merchants().GetByID(f.merchant.ID)
		require.NoError(t, err)
		assert.Equal(t, f.request.MerchantReceives, merch.Balance)
		assert.Equal(t, f.request.FeeAmount, merch.TotalFeesPaid)

		cust, err := f.store.Customers().GetByID(f.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 5000.0, cust.AvailableLimit)
		assert.Zero(t, cust.UsedLimit)
	})

	t.Run("rounded schedule settles to the exact total", func(t *testing.T) {
		f := approvedFixture(t, 1000, 3)

		for n := 1; n <= 3; n++ {
			inst := f.installment(t, n)
			_, err := f.svc.Pay(context.Background(), f.customer.UserID, inst.ID, inst.Amount)
			require.NoError(t, err)
		}

		plan, err := f.store.Plans().GetByID(f.plan.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PlanStatusPaid, plan.Status)
		assert.Equal(t, 1000.0, plan.TotalPaid)
		assert.Zero(t, plan.RemainingAmount)
	})

	t.Run("already paid installment", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		_, err := f.svc.Pay(context.Background(), f.customer.UserID, first.ID, 250)
		require.NoError(t, err)
		_, err = f.svc.Pay(context.Background(), f.customer.UserID, first.ID, 250)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		_, err := f.svc.Pay(context.Background(), f.customer.UserID, f.installment(t, 1).ID, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("another customer cannot pay", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		other := f.store.SeedCustomer(models.Customer{
			UserID: 11, NationalID: "999", CreditLimit: 5000, AvailableLimit: 5000, IsApproved: true,
		})
		_, err := f.svc.Pay(context.Background(), other.UserID, f.installment(t, 1).ID, 250)
		assert.ErrorIs(t, err, ErrWrongOwner)
	})
}

func TestPaymentRequestFlow(t *testing.T) {
	t.Run("request then merchant approval settles in full", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		requested, err := f.svc.RequestPayment(context.Background(), f.customer.UserID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InstallmentStatusPaymentRequested, requested.Status)
		require.NotNil(t, requested.RequestedAt)

		pending, err := f.svc.ListPaymentRequestsForMerchant(context.Background(), f.merchant.UserID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, first.ID, pending[0].ID)

		result, err := f.svc.ApprovePaymentRequest(context.Background(), f.merchant.UserID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 250.0, result.AmountApplied)
		assert.Equal(t, models.InstallmentStatusPaid, result.Installment)

		cust, err := f.store.Customers().GetByID(f.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, 4250.0, cust.AvailableLimit)
	})

	t.Run("rejection returns installment to pending", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		_, err := f.svc.RequestPayment(context.Background(), f.customer.UserID, first.ID)
		require.NoError(t, err)

		rejected, err := f.svc.RejectPaymentRequest(context.Background(), f.merchant.UserID, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InstallmentStatusPending, rejected.Status)
		assert.Nil(t, rejected.RequestedAt)
	})

	t.Run("cannot request twice", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		first := f.installment(t, 1)

		_, err := f.svc.RequestPayment(context.Background(), f.customer.UserID, first.ID)
		require.NoError(t, err)
		_, err = f.svc.RequestPayment(context.Background(), f.customer.UserID, first.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("another merchant cannot approve", func(t *testing.T) {
		f := approvedFixture(t, 1000, 4)
		other := f.store.SeedMerchant(models.Merchant{
			UserID: 21, BusinessName: "Other Shop", CommercialRegistration: "CR-2002", IsApproved: true,
		})
		first := f.installment(t, 1)

		_, err := f.svc.RequestPayment(context.Background(), f.customer.UserID, first.ID)
		require.NoError(t, err)
		_, err = f.svc.ApprovePaymentRequest(context.Background(), other.UserID, first.ID)
		assert.ErrorIs(t, err, ErrWrongOwner)
	})
}

func TestSweepOverdue(t *testing.T) {
	f := approvedFixture(t, 1000, 4)

	// Jump past the second due date.
	lateNow := models.AddMonths(testNow, 2).Add(time.Hour)
	lateSvc := NewService(f.store, nil, Config{Now: func() time.Time { return lateNow }})

	count, err := lateSvc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	overdue, err := lateSvc.ListOverdueForCustomer(context.Background(), f.customer.UserID)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, 1, overdue[0].Number)
	assert.Equal(t, 2, overdue[1].Number)

	// Paying an overdue installment still works through the same path.
	result, err := lateSvc.Pay(context.Background(), f.customer.UserID, overdue[0].ID, 250)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusPaid, result.Installment)

	// The sweep is idempotent for what it already flipped.
	count, err = lateSvc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNextInstallment(t *testing.T) {
	f := approvedFixture(t, 1000, 3)

	next, err := f.svc.NextInstallment(context.Background(), f.customer.UserID, f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Number)

	_, err = f.svc.Pay(context.Background(), f.customer.UserID, next.ID, next.Amount)
	require.NoError(t, err)

	next, err = f.svc.NextInstallment(context.Background(), f.customer.UserID, f.plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Number)
}
