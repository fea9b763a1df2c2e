package handlers

import (
	"errors"
	"log"

	"taqsit/internal/models"
	"taqsit/internal/services/plan"
	"taqsit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type RepaymentHandler struct {
	planService plan.Service
}

func NewRepaymentHandler(planService plan.Service) *RepaymentHandler {
	return &RepaymentHandler{
		planService: planService,
	}
}

// PayInstallment applies a customer payment to an installment.
func (h *RepaymentHandler) PayInstallment(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	installmentID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid installment id")
	}

	var input struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	result, err := h.planService.Pay(c.Context(), claims.UserID, installmentID, input.Amount)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, result)
}

// RequestPayment flags an installment for merchant-side collection.
func (h *RepaymentHandler) RequestPayment(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	installmentID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid installment id")
	}

	installment, err := h.planService.RequestPayment(c.Context(), claims.UserID, installmentID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, installment)
}

// ApprovePaymentRequest settles a requested installment on merchant
// confirmation.
func (h *RepaymentHandler) ApprovePaymentRequest(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	installmentID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid installment id")
	}

	result, err := h.planService.ApprovePaymentRequest(c.Context(), claims.UserID, installmentID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, result)
}

// RejectPaymentRequest returns a requested installment to its previous
// state.
func (h *RepaymentHandler) RejectPaymentRequest(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	installmentID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid installment id")
	}

	installment, err := h.planService.RejectPaymentRequest(c.Context(), claims.UserID, installmentID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, installment)
}

// ListMyPlans returns the caller's installment plans.
func (h *RepaymentHandler) ListMyPlans(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var status *models.PlanStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PlanStatus(raw)
		status = &s
	}

	plans, err := h.planService.ListForCustomer(c.Context(), claims.UserID, status)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, fiber.Map{"plans": plans})
}

// GetPlan returns one of the caller's plans with its full schedule.
func (h *RepaymentHandler) GetPlan(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	planID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid plan id")
	}

	p, err := h.planService.GetPlan(c.Context(), claims.UserID, planID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, p)
}

// NextInstallment returns the earliest unpaid installment of a plan.
func (h *RepaymentHandler) NextInstallment(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	planID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid plan id")
	}

	installment, err := h.planService.NextInstallment(c.Context(), claims.UserID, planID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, installment)
}

// ListOverdue returns the caller's overdue installments.
func (h *RepaymentHandler) ListOverdue(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	installments, err := h.planService.ListOverdueForCustomer(c.Context(), claims.UserID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, fiber.Map{"installments": installments})
}

// ListPaymentRequests returns the installments waiting on the calling
// merchant's confirmation.
func (h *RepaymentHandler) ListPaymentRequests(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	installments, err := h.planService.ListPaymentRequestsForMerchant(c.Context(), claims.UserID)
	if err != nil {
		return repaymentError(c, err)
	}
	return utils.Success(c, fiber.Map{"installments": installments})
}

func repaymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, plan.ErrNotFound), errors.Is(err, plan.ErrPlanNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, plan.ErrWrongOwner):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, plan.ErrInvalidState), errors.Is(err, plan.ErrAlreadySettled):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, plan.ErrInvalidAmount):
		return utils.BadRequest(c, err.Error())
	default:
		log.Printf("repayment operation failed: %v", err)
		return utils.InternalError(c, "operation failed")
	}
}
