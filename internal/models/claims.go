package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"

	// Customer permissions
	PermissionCreditRead     = "credit:read"
	PermissionPurchaseRead   = "purchase:read"
	PermissionPurchaseWrite  = "purchase:write"
	PermissionRepaymentRead  = "repayment:read"
	PermissionRepaymentWrite = "repayment:write"

	// Merchant permissions
	PermissionMerchantRead    = "merchant:read"
	PermissionMerchantRequest = "merchant:request"
	PermissionMerchantSettle  = "merchant:settle"
)

type UserClaims struct {
	jwt.RegisteredClaims
	UserID       uint     `json:"user_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionCreditRead,
			PermissionPurchaseRead,
			PermissionPurchaseWrite,
			PermissionRepaymentRead,
			PermissionRepaymentWrite,
			PermissionMerchantRead,
			PermissionMerchantRequest,
			PermissionMerchantSettle,
		}
	case RoleMerchant:
		return []string{
			PermissionMerchantRead,
			PermissionMerchantRequest,
			PermissionMerchantSettle,
			PermissionPurchaseRead,
		}
	case RoleCustomer:
		return []string{
			PermissionCreditRead,
			PermissionPurchaseRead,
			PermissionPurchaseWrite,
			PermissionRepaymentRead,
			PermissionRepaymentWrite,
		}
	default:
		return []string{}
	}
}
