package handlers

import (
	"errors"
	"log"

	"taqsit/internal/models"
	"taqsit/internal/services/credit"
	"taqsit/internal/services/ledger"
	"taqsit/internal/services/plan"
	"taqsit/internal/services/purchase"
	"taqsit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	creditService   credit.Service
	ledgerService   ledger.Service
	purchaseService purchase.Service
	planService     plan.Service
}

func NewAdminHandler(creditService credit.Service, ledgerService ledger.Service, purchaseService purchase.Service, planService plan.Service) *AdminHandler {
	return &AdminHandler{
		creditService:   creditService,
		ledgerService:   ledgerService,
		purchaseService: purchaseService,
		planService:     planService,
	}
}

// ApproveCustomer activates a pending customer account.
func (h *AdminHandler) ApproveCustomer(c *fiber.Ctx) error {
	customerID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid customer id")
	}

	customer, err := h.creditService.ApproveCustomer(c.Context(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, credit.ErrNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, credit.ErrAlreadyApproved):
			return utils.Conflict(c, err.Error())
		default:
			return utils.InternalError(c, "approval failed")
		}
	}
	return utils.Success(c, customer)
}

// ApproveMerchant activates a pending merchant account.
func (h *AdminHandler) ApproveMerchant(c *fiber.Ctx) error {
	merchantID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid merchant id")
	}

	merchant, err := h.ledgerService.ApproveMerchant(c.Context(), merchantID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, ledger.ErrAlreadyApproved):
			return utils.Conflict(c, err.Error())
		default:
			return utils.InternalError(c, "approval failed")
		}
	}
	return utils.Success(c, merchant)
}

// ResizeCreditLimit sets a new total credit limit on a customer.
func (h *AdminHandler) ResizeCreditLimit(c *fiber.Ctx) error {
	customerID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid customer id")
	}

	var input struct {
		CreditLimit float64 `json:"credit_limit"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	customer, err := h.creditService.ResizeLimit(c.Context(), customerID, input.CreditLimit)
	if err != nil {
		switch {
		case errors.Is(err, credit.ErrNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, credit.ErrInvalidLimit):
			return utils.BadRequest(c, err.Error())
		default:
			log.Printf("resize failed: %v", err)
			return utils.InternalError(c, "resize failed")
		}
	}
	return utils.Success(c, customer)
}

// ListCustomers returns customer accounts, optionally filtered by
// approval state.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	approved := approvalFilter(c)
	pagination := utils.GetPagination(c, 1, 20)

	customers, total, err := h.creditService.ListCustomers(c.Context(), approved, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to list customers")
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(customers, pagination))
}

// ListMerchants returns merchant accounts, optionally filtered by
// approval state.
func (h *AdminHandler) ListMerchants(c *fiber.Ctx) error {
	approved := approvalFilter(c)
	pagination := utils.GetPagination(c, 1, 20)

	merchants, total, err := h.ledgerService.ListMerchants(c.Context(), approved, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to list merchants")
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(merchants, pagination))
}

// ListRequests returns purchase requests across all accounts,
// optionally filtered by status.
func (h *AdminHandler) ListRequests(c *fiber.Ctx) error {
	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		s := models.RequestStatus(raw)
		status = &s
	}
	pagination := utils.GetPagination(c, 1, 20)

	requests, total, err := h.purchaseService.ListAll(c.Context(), status, pagination.Limit, pagination.Offset)
	if err != nil {
		return utils.InternalError(c, "failed to list requests")
	}
	pagination.SetTotal(total)
	return utils.Success(c, utils.NewPaginatedResponse(requests, pagination))
}

// RunSweeps triggers the expiry and overdue sweeps on demand. The same
// work runs on the cron schedule; this endpoint exists for operations.
func (h *AdminHandler) RunSweeps(c *fiber.Ctx) error {
	expired, err := h.purchaseService.SweepExpired(c.Context())
	if err != nil {
		log.Printf("expiry sweep failed: %v", err)
		return utils.InternalError(c, "expiry sweep failed")
	}
	overdue, err := h.planService.SweepOverdue(c.Context())
	if err != nil {
		log.Printf("overdue sweep failed: %v", err)
		return utils.InternalError(c, "overdue sweep failed")
	}
	return utils.Success(c, fiber.Map{
		"expired_requests":     expired,
		"overdue_installments": overdue,
	})
}

func approvalFilter(c *fiber.Ctx) *bool {
	switch c.Query("approved") {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}
