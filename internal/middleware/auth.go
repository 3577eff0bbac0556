// Package middleware provides HTTP middleware components for the application.
// It includes authentication and authorization middleware for the fiber
// web framework, covering both plain requests and websocket upgrades.
package middleware

import (
	"strings"

	"nexus/internal/models"
	"nexus/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware handles JWT token validation. It extracts the token
// from the Authorization header (or the token query parameter for
// websocket clients, which cannot set headers), validates it, and adds
// the claims to the request context.
type AuthMiddleware struct {
	tokenVersion func(userID uint) (int, error)
	logger       *zap.Logger
}

// NewAuthMiddleware builds the middleware. tokenVersion resolves the
// current token version for a user so revoked sessions are rejected.
func NewAuthMiddleware(tokenVersion func(userID uint) (int, error), logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokenVersion: tokenVersion, logger: logger}
}

// Handler validates the JWT and stores the claims in the context.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	tokenString := ""
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	} else if token := c.Query("token"); token != "" {
		tokenString = token
	}
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}

	_, claims, err := utils.ParseToken(tokenString)
	if err != nil {
		m.logger.Debug("token validation failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	if m.tokenVersion != nil {
		currentVersion, err := m.tokenVersion(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		if claims.TokenVersion != currentVersion {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session expired"})
		}
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if !claims.HasPermission(permission) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}
		return c.Next()
	}
}
