package handlers

import (
	"errors"
	"log"

	"taqsit/internal/models"
	"taqsit/internal/services/auth"
	"taqsit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates by email or phone and returns JWT tokens.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if (input.Email == "" && input.Phone == "") || input.Password == "" {
		return utils.BadRequest(c, "email/phone and password are required")
	}

	user, accessToken, refreshToken, err := h.authService.Login(input.Email, input.Phone, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return utils.Unauthorized(c, "invalid email or password")
		}
		return utils.InternalError(c, "authentication failed")
	}

	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.FullName,
			"role":  user.Role,
		},
	})
}

// RegisterCustomer opens a new customer account with the platform
// default credit limit, pending admin approval.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var input auth.RegisterCustomerInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if input.Email == "" || input.Password == "" || input.Phone == "" || input.NationalID == "" {
		return utils.BadRequest(c, "email, password, phone and national id are required")
	}

	user, customer, err := h.authService.RegisterCustomer(input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateAccount):
			return utils.Conflict(c, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			return utils.BadRequest(c, err.Error())
		default:
			log.Printf("customer registration failed: %v", err)
			return utils.InternalError(c, "registration failed")
		}
	}

	return utils.Created(c, fiber.Map{
		"user_id":      user.ID,
		"customer_id":  customer.ID,
		"credit_limit": customer.CreditLimit,
		"is_approved":  customer.IsApproved,
	})
}

// RegisterMerchant opens a new merchant account pending admin approval.
func (h *AuthHandler) RegisterMerchant(c *fiber.Ctx) error {
	var input auth.RegisterMerchantInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request body")
	}
	if input.Email == "" || input.Password == "" || input.BusinessName == "" || input.CommercialRegistration == "" {
		return utils.BadRequest(c, "email, password, business name and commercial registration are required")
	}

	user, merchant, err := h.authService.RegisterMerchant(input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateAccount):
			return utils.Conflict(c, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			return utils.BadRequest(c, err.Error())
		default:
			log.Printf("merchant registration failed: %v", err)
			return utils.InternalError(c, "registration failed")
		}
	}

	return utils.Created(c, fiber.Map{
		"user_id":     user.ID,
		"merchant_id": merchant.ID,
		"is_approved": merchant.IsApproved,
	})
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return utils.Unauthorized(c, "refresh token not provided")
	}

	accessToken, refreshToken, err := h.authService.RefreshTokens(input.RefreshToken)
	if err != nil {
		log.Printf("token refresh failed: %v", err)
		return utils.Unauthorized(c, "invalid refresh token")
	}

	return utils.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Logout invalidates all outstanding tokens for the caller.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return utils.Unauthorized(c, "invalid claims")
	}
	if err := h.authService.Logout(claims.UserID); err != nil {
		return utils.InternalError(c, "logout failed")
	}
	return utils.Success(c, fiber.Map{"message": "logged out"})
}
