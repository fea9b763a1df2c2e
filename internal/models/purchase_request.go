package models

import (
	"time"
)

// RequestStatus is the purchase request state machine.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"   // merchant sent request, waiting for customer
	RequestStatusApproved  RequestStatus = "approved"  // customer approved the purchase
	RequestStatusRejected  RequestStatus = "rejected"  // customer rejected the purchase
	RequestStatusCancelled RequestStatus = "cancelled" // merchant cancelled the request
	RequestStatusCompleted RequestStatus = "completed" // purchase fully repaid, fee settled
	RequestStatusExpired   RequestStatus = "expired"   // request expired without customer response
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:  {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled, RequestStatusExpired},
	RequestStatusApproved: {RequestStatusCompleted},
}

// CanTransitionTo reports whether the state machine allows moving from
// s to target. Terminal states allow nothing.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// RequestTTL is how long a pending request stays approvable.
const RequestTTL = 24 * time.Hour

// PurchaseRequest is a merchant-initiated purchase against a customer's
// credit limit. The fee percentage is snapshotted at creation; later
// changes to the global rate never alter an existing request.
type PurchaseRequest struct {
	ID              uint   `gorm:"primarykey"`
	ReferenceNumber string `gorm:"uniqueIndex;not null"`

	CustomerID uint `gorm:"index;not null"`
	MerchantID uint `gorm:"index;not null"`

	Amount           float64 `gorm:"not null"`
	FeePercent       float64 `gorm:"default:0"`
	FeeAmount        float64 `gorm:"not null"`
	MerchantReceives float64 `gorm:"not null"`

	Description string
	ProductName string

	Status RequestStatus `gorm:"type:varchar(20);index;default:'pending'"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time `gorm:"not null"`
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
	CompletedAt *time.Time
}

// CalculateFee splits a gross amount into the platform fee and the net
// the merchant keeps. Only the fee is rounded; the net is the exact
// remainder, so fee + net always reconciles to the gross amount.
func CalculateFee(amount, feePercent float64) (fee, merchantReceives float64) {
	fee = Round2(amount * feePercent / 100)
	merchantReceives = amount - fee
	return fee, merchantReceives
}

// Expired reports whether the request's approval window has passed.
func (r *PurchaseRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
