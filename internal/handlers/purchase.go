package handlers

import (
	"errors"
	"log"
	"strconv"

	"taqsit/internal/models"
	"taqsit/internal/services/purchase"
	"taqsit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PurchaseHandler struct {
	purchaseService purchase.Service
}

func NewPurchaseHandler(purchaseService purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// CreateRequest lets a merchant open a purchase request against a
// customer's credit line.
func (h *PurchaseHandler) CreateRequest(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		CustomerID  uint    `json:"customer_id"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		ProductName string  `json:"product_name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	request, err := h.purchaseService.Create(c.Context(), claims.UserID, purchase.CreateInput{
		CustomerID:  input.CustomerID,
		Amount:      input.Amount,
		Description: input.Description,
		ProductName: input.ProductName,
	})
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Created(c, request)
}

// ApproveRequest lets the customer accept a pending request and choose
// the installment term.
func (h *PurchaseHandler) ApproveRequest(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	var input struct {
		Months int `json:"months"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}

	request, err := h.purchaseService.Approve(c.Context(), claims.UserID, requestID, input.Months)
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Success(c, request)
}

// RejectRequest lets the customer decline a pending request.
func (h *PurchaseHandler) RejectRequest(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	// The reason is optional; a missing body is fine.
	_ = c.BodyParser(&input)

	request, err := h.purchaseService.Reject(c.Context(), claims.UserID, requestID, input.Reason)
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Success(c, request)
}

// CancelRequest lets the originating merchant withdraw a pending
// request.
func (h *PurchaseHandler) CancelRequest(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	requestID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	request, err := h.purchaseService.Cancel(c.Context(), claims.UserID, requestID)
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Success(c, request)
}

// ListMyRequests returns the caller's purchase requests, customers and
// merchants each seeing their own side.
func (h *PurchaseHandler) ListMyRequests(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var status *models.RequestStatus
	if raw := c.Query("status"); raw != "" {
		s := models.RequestStatus(raw)
		status = &s
	}
	pagination := utils.GetPagination(c, 1, 20)

	var requests []models.PurchaseRequest
	switch claims.Role {
	case models.RoleMerchant:
		requests, err = h.purchaseService.ListForMerchant(c.Context(), claims.UserID, status, pagination.Limit, pagination.Offset)
	default:
		requests, err = h.purchaseService.ListForCustomer(c.Context(), claims.UserID, status, pagination.Limit, pagination.Offset)
	}
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Success(c, fiber.Map{"requests": requests})
}

// ListPendingRequests returns the caller's still-approvable requests.
func (h *PurchaseHandler) ListPendingRequests(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	requests, err := h.purchaseService.ListPendingForCustomer(c.Context(), claims.UserID)
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Success(c, fiber.Map{"requests": requests})
}

// GetRequest returns a single purchase request.
func (h *PurchaseHandler) GetRequest(c *fiber.Ctx) error {
	requestID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "invalid request id")
	}

	request, err := h.purchaseService.Get(c.Context(), requestID)
	if err != nil {
		return purchaseError(c, err)
	}
	return utils.Success(c, request)
}

func purchaseError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, purchase.ErrNotFound), errors.Is(err, purchase.ErrCustomerNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, purchase.ErrWrongOwner):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, purchase.ErrExpired):
		return utils.Gone(c, err.Error())
	case errors.Is(err, purchase.ErrInvalidState):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, purchase.ErrInsufficientLimit), errors.Is(err, purchase.ErrCustomerNotApproved):
		return utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, purchase.ErrInvalidAmount), errors.Is(err, purchase.ErrInvalidMonths):
		return utils.BadRequest(c, err.Error())
	default:
		log.Printf("purchase operation failed: %v", err)
		return utils.InternalError(c, "operation failed")
	}
}

func currentClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return nil, errors.New("claims not found in context")
	}
	return claims, nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
