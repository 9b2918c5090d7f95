package middleware

import (
	"errors"
	"strings"

	"github.com/fathima-sithara/social-service/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserIDKey is the Locals key holding the authenticated user id.
const UserIDKey = "user_id"

// JWTMiddleware rejects requests without a valid bearer token and stores
// the token's user id under UserIDKey.
func JWTMiddleware(tokens *utils.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing authorization header"})
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid authorization header"})
		}

		userID, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Token expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": msg})
		}

		c.Locals(UserIDKey, userID)
		logger.Debug("JWT validated", zap.String("user_id", userID))
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" on unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
