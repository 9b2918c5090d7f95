package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/social-service/internal/services"
	"github.com/fathima-sithara/social-service/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const msgServerError = "Server error"

var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrUserAlreadyExists, fiber.StatusBadRequest, "Email or Username already taken."},
	{services.ErrInvalidCredentials, fiber.StatusBadRequest, "Invalid credentials"},
	{services.ErrEmptyContent, fiber.StatusBadRequest, "Content cannot be empty"},
	{services.ErrEmptyCaption, fiber.StatusBadRequest, "Caption is required"},
	{services.ErrNoImages, fiber.StatusBadRequest, "A post must contain at least one image."},
	{services.ErrBlankImage, fiber.StatusBadRequest, "Image entries cannot be empty"},
	{services.ErrBioTooLong, fiber.StatusBadRequest, "Bio must be at most 150 characters"},
	{services.ErrEmptyName, fiber.StatusBadRequest, "Name cannot be empty"},
	{services.ErrAlreadyFollowing, fiber.StatusBadRequest, "You are already following this user"},
	{services.ErrNotFollowing, fiber.StatusBadRequest, "You are not following this user"},
	{services.ErrSelfFollow, fiber.StatusBadRequest, "You cannot follow yourself"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "User not found"},
	{services.ErrTargetNotFound, fiber.StatusNotFound, "Target user not found"},
	{services.ErrPostNotFound, fiber.StatusNotFound, "Post not found"},
	{services.ErrForbidden, fiber.StatusForbidden, "You can only modify your own account"},
}

// respondError writes the JSON error body for err. invalidIDMsg is the
// route-specific message used for malformed identifiers.
func respondError(c *fiber.Ctx, log *zap.Logger, err error, invalidIDMsg string) error {
	if errors.Is(err, services.ErrInvalidID) || errors.Is(err, utils.ErrInvalidID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": invalidIDMsg})
	}
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			return c.Status(r.status).JSON(fiber.Map{"message": r.message})
		}
	}

	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": msgServerError})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
}

// validate runs struct validation and writes the 400 response on failure.
// It returns (true, nil) when the request is valid.
func validate(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := utils.Validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": utils.FirstMessage(err),
			"errors":  utils.FormatValidationErrors(err),
		})
	}
	return true, nil
}

func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), timeout)
}
