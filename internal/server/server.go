package server

import (
	"errors"

	"github.com/fathima-sithara/social-service/internal/config"
	"github.com/fathima-sithara/social-service/internal/middleware"
	"github.com/fathima-sithara/social-service/internal/routes"
	"github.com/fathima-sithara/social-service/internal/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// New initializes the Fiber application with config, middlewares, and routes.
func New(cfg *config.Config, h routes.Handlers, tokens *utils.JWTManager, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "social-service",
		// values from Ctx outlive the handler (metric labels, stored records)
		Immutable:    true,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(middleware.Recovery(logger))
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "X-Next-Cursor",
	}))
	app.Use(middleware.ZapLogger(logger))
	app.Use(middleware.Metrics())

	routes.Setup(app, h, middleware.JWTMiddleware(tokens, logger))
	return app
}

// errorHandler answers anything a handler returned instead of writing itself.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}
		logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
}
