package handlers

import (
	"errors"
	"log"

	"taqsit/internal/services/credit"
	"taqsit/internal/services/ledger"
	"taqsit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type MerchantHandler struct {
	ledgerService ledger.Service
	creditService credit.Service
}

func NewMerchantHandler(ledgerService ledger.Service, creditService credit.Service) *MerchantHandler {
	return &MerchantHandler{
		ledgerService: ledgerService,
		creditService: creditService,
	}
}

// GetBalanceSummary returns the merchant dashboard figures.
func (h *MerchantHandler) GetBalanceSummary(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	summary, err := h.ledgerService.BalanceSummary(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return utils.NotFound(c, err.Error())
		}
		log.Printf("failed to build balance summary: %v", err)
		return utils.InternalError(c, "failed to load balance summary")
	}
	return utils.Success(c, summary)
}

// GetMyMerchant returns the caller's merchant profile.
func (h *MerchantHandler) GetMyMerchant(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	merchant, err := h.ledgerService.GetMerchant(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "failed to load merchant")
	}
	return utils.Success(c, merchant)
}

// LookupCustomer resolves a customer by national id before a merchant
// creates a purchase request.
func (h *MerchantHandler) LookupCustomer(c *fiber.Ctx) error {
	nationalID := c.Params("national_id")
	if nationalID == "" {
		return utils.BadRequest(c, "national id is required")
	}

	profile, err := h.creditService.LookupByNationalID(c.Context(), nationalID)
	if err != nil {
		if errors.Is(err, credit.ErrNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "lookup failed")
	}

	return utils.Success(c, fiber.Map{
		"customer_id":     profile.Customer.ID,
		"full_name":       profile.FullName,
		"phone":           profile.Phone,
		"available_limit": profile.Customer.AvailableLimit,
		"is_approved":     profile.Customer.IsApproved,
	})
}
