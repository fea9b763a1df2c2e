package handlers

import (
	"errors"
	"log"

	"taqsit/internal/services/credit"
	"taqsit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type CustomerHandler struct {
	creditService credit.Service
}

func NewCustomerHandler(creditService credit.Service) *CustomerHandler {
	return &CustomerHandler{
		creditService: creditService,
	}
}

// GetMyAccount returns the caller's credit account with the limit
// breakdown.
func (h *CustomerHandler) GetMyAccount(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	account, err := h.creditService.GetAccount(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, credit.ErrNotFound) {
			return utils.NotFound(c, err.Error())
		}
		log.Printf("failed to load credit account: %v", err)
		return utils.InternalError(c, "failed to load account")
	}

	return utils.Success(c, fiber.Map{
		"customer_id":     account.ID,
		"credit_limit":    account.CreditLimit,
		"available_limit": account.AvailableLimit,
		"used_limit":      account.UsedLimit,
		"is_approved":     account.IsApproved,
	})
}
