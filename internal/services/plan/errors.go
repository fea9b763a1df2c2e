package plan

import "errors"

// Service errors
var (
	ErrNotFound       = errors.New("installment not found")
	ErrPlanNotFound   = errors.New("installment plan not found")
	ErrWrongOwner     = errors.New("this installment plan does not belong to you")
	ErrInvalidState   = errors.New("operation not valid in current installment state")
	ErrInvalidAmount  = errors.New("payment amount must be greater than zero")
	ErrAlreadySettled = errors.New("installment is already fully paid")
)
