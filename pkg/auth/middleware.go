package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/waforge/waforge/pkg/router"
)

// BearerAuth validates the JWT token from Authorization header
// Token format: "Bearer <jwt_token>"
// Validation is stateless - no storage hit for any request
func BearerAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return router.ResponseUnauthorized(c, "Missing Authorization header")
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return router.ResponseUnauthorized(c, "Invalid Authorization header format. Use: Bearer <token>")
		}

		tokenString := parts[1]
		if tokenString == "" {
			return router.ResponseUnauthorized(c, "Missing token")
		}

		claims, err := ValidateSessionToken(tokenString)
		if err != nil {
			return router.ResponseUnauthorized(c, "Invalid or expired token")
		}

		c.Locals("username", claims.Username)

		return c.Next()
	}
}
