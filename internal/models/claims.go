package models

import "github.com/golang-jwt/jwt/v5"

// Operator permissions
const (
	PermissionPaymentOverride = "payment:override"
	PermissionWalletCredit    = "wallet:credit"
	PermissionWalletRead      = "wallet:read"
)

// OperatorClaims is the JWT payload for admin-surface tokens.
type OperatorClaims struct {
	jwt.RegisteredClaims
	OperatorID  uint     `json:"operator_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// DefaultPermissions maps an operator role to its permission set.
func DefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{PermissionPaymentOverride, PermissionWalletCredit, PermissionWalletRead}
	case RoleSupport:
		return []string{PermissionWalletRead}
	default:
		return nil
	}
}
