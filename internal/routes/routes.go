package routes

import (
	"github.com/fathima-sithara/social-service/internal/handlers"
	"github.com/fathima-sithara/social-service/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type Handlers struct {
	Auth *handlers.AuthHandler
	User *handlers.UserHandler
	Post *handlers.PostHandler
}

// Setup mounts the API under /user. auth guards the routes that act on the
// caller's own account.
func Setup(app *fiber.App, h Handlers, auth fiber.Handler) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	user := app.Group("/user")

	user.Post("/register", h.Auth.Register)
	user.Post("/login", h.Auth.Login)

	user.Put("/profile", auth, h.User.UpdateProfile)
	user.Delete("/delete", auth, h.User.DeleteUser)
	user.Post("/follow", h.User.Follow)
	user.Post("/unfollow", h.User.Unfollow)

	user.Get("/", h.Post.Feed)
	user.Post("/post", h.Post.CreatePost)
	user.Post("/post/:postId/comment", h.Post.AddComment)
	user.Post("/post/:postId/like", h.Post.ToggleLike)
	user.Post("/:postId/like", h.Post.ToggleLike)

	user.Get("/:userId/posts", h.Post.UserPosts)
	user.Get("/:userId", h.User.GetProfile)
}
