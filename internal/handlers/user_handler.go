package handlers

import (
	"time"

	"github.com/fathima-sithara/social-service/internal/middleware"
	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/services"
	"github.com/fathima-sithara/social-service/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	msgInvalidUserID  = "Invalid userId format"
	msgInvalidUserIDs = "Invalid user ID(s)"
)

type UserHandler struct {
	svc     services.UserService
	log     *zap.Logger
	timeout time.Duration
}

func NewUserHandler(svc services.UserService, log *zap.Logger, timeout time.Duration) *UserHandler {
	return &UserHandler{svc: svc, log: log, timeout: timeout}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	profile, err := h.svc.Profile(ctx, c.Params("userId"))
	if err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /user/profile. Only the token owner may update.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, &req); !ok {
		return err
	}
	if err := authorize(c, req.UserID); err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.svc.UpdateProfile(ctx, req.UserID, models.ProfileUpdate{
		Name:           req.Name,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "user": user})
}

// DeleteUser handles DELETE /user/delete. Only the token owner may delete.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	var req models.UserIDRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if err := authorize(c, req.UserID); err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.svc.Delete(ctx, req.UserID); err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

func (h *UserHandler) Follow(c *fiber.Ctx) error {
	var req models.FollowRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.svc.Follow(ctx, req.UserID, req.TargetUserID); err != nil {
		return respondError(c, h.log, err, msgInvalidUserIDs)
	}
	return c.JSON(fiber.Map{"message": "Followed successfully"})
}

func (h *UserHandler) Unfollow(c *fiber.Ctx) error {
	var req models.FollowRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.svc.Unfollow(ctx, req.UserID, req.TargetUserID); err != nil {
		return respondError(c, h.log, err, msgInvalidUserIDs)
	}
	return c.JSON(fiber.Map{"message": "Unfollowed successfully"})
}

// authorize checks that userID is well formed and belongs to the token owner.
func authorize(c *fiber.Ctx, userID string) error {
	id, err := utils.ParseID(userID)
	if err != nil {
		return err
	}
	if middleware.UserID(c) != id.Hex() {
		return services.ErrForbidden
	}
	return nil
}
