package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionFraudAnalyze  = "fraud:analyze"
	PermissionAlertsRead    = "alerts:read"
	PermissionBaselineWrite = "baseline:write"
	PermissionDashboardRead = "dashboard:read"
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
	case "admin":
		return []string{
			PermissionFraudAnalyze,
			PermissionAlertsRead,
			PermissionBaselineWrite,
			PermissionDashboardRead,
		}
	case "analyst":
		return []string{
			PermissionFraudAnalyze,
			PermissionAlertsRead,
			PermissionDashboardRead,
		}
	default:
		return []string{PermissionAlertsRead}
	}
}
