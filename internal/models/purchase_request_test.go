package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFee(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		feePercent float64
		wantFee    float64
		wantNet    float64
	}{
		{"standard rate", 1000, 0.5, 5.0, 995.0},
		{"zero rate", 1000, 0, 0, 1000},
		{"fee rounds to cents", 333.33, 0.5, 1.67, 331.66},
		{"small amount", 1, 0.5, 0.01, 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := CalculateFee(tt.amount, tt.feePercent)
			assert.InDelta(t, tt.wantFee, fee, 0.001)
			assert.InDelta(t, tt.wantNet, net, 0.001)
			// The split must reconcile exactly, not merely closely.
			assert.Equal(t, tt.amount, fee+net)
		})
	}
}

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusApproved))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusRejected))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusCancelled))
	assert.True(t, RequestStatusPending.CanTransitionTo(RequestStatusExpired))
	assert.True(t, RequestStatusApproved.CanTransitionTo(RequestStatusCompleted))

	// Terminal states allow nothing.
	for _, terminal := range []RequestStatus{
		RequestStatusRejected, RequestStatusCancelled, RequestStatusCompleted, RequestStatusExpired,
	} {
		assert.False(t, terminal.CanTransitionTo(RequestStatusApproved), "from %s", terminal)
		assert.False(t, terminal.CanTransitionTo(RequestStatusPending), "from %s", terminal)
	}

	assert.False(t, RequestStatusPending.CanTransitionTo(RequestStatusCompleted))
	assert.False(t, RequestStatusApproved.CanTransitionTo(RequestStatusApproved))
}

func TestPurchaseRequest_Expired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	req := &PurchaseRequest{ExpiresAt: now.Add(RequestTTL)}

	assert.False(t, req.Expired(now))
	assert.False(t, req.Expired(now.Add(RequestTTL)))
	assert.True(t, req.Expired(now.Add(RequestTTL+time.Second)))
}
