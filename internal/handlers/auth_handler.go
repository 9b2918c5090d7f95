package handlers

import (
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc     services.AuthService
	log     *zap.Logger
	timeout time.Duration
}

func NewAuthHandler(svc services.AuthService, log *zap.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, log: log, timeout: timeout}
}

// Register handles POST /user/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	res, err := h.svc.Register(ctx, req)
	if err != nil {
		return respondError(c, h.log, err, "Invalid request")
	}
	return c.Status(fiber.StatusCreated).JSON(models.AuthResponse{
		Message: "User registered successfully!",
		Token:   res.Token,
		UserID:  res.User.ID.Hex(),
	})
}

// Login handles POST /user/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	if ok, err := validate(c, &req); !ok {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	res, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err, "Invalid request")
	}
	return c.JSON(models.AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		UserID:  res.User.ID.Hex(),
	})
}
