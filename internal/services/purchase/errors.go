package purchase

import "errors"

// Service errors
var (
	ErrNotFound            = errors.New("purchase request not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrWrongOwner          = errors.New("this purchase request does not belong to you")
	ErrInvalidState        = errors.New("operation not valid in current request state")
	ErrInsufficientLimit   = errors.New("insufficient available limit")
	ErrCustomerNotApproved = errors.New("customer account is not approved")
	ErrExpired             = errors.New("purchase request has expired")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidMonths       = errors.New("number of months must be between 1 and 28")
)
