package handlers

import (
	"strconv"
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HeaderNextCursor carries the "before" value for the next feed page.
const HeaderNextCursor = "X-Next-Cursor"

const msgInvalidIDs = "Invalid userId or postId format"

type PostHandler struct {
	svc     services.PostService
	log     *zap.Logger
	timeout time.Duration
}

func NewPostHandler(svc services.PostService, log *zap.Logger, timeout time.Duration) *PostHandler {
	return &PostHandler{svc: svc, log: log, timeout: timeout}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req models.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	post, err := h.svc.Create(ctx, req.UserID, req.Caption, req.Image)
	if err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Post created successfully!", "post": post})
}

func (h *PostHandler) ToggleLike(c *fiber.Ctx) error {
	var req models.UserIDRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	post, err := h.svc.ToggleLike(ctx, c.Params("postId"), req.UserID)
	if err != nil {
		return respondError(c, h.log, err, msgInvalidIDs)
	}
	return c.JSON(post)
}

func (h *PostHandler) AddComment(c *fiber.Ctx) error {
	var req models.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	post, err := h.svc.AddComment(ctx, c.Params("postId"), req.UserID, req.Content)
	if err != nil {
		return respondError(c, h.log, err, msgInvalidIDs)
	}
	return c.JSON(fiber.Map{"message": "Comment added successfully", "post": post})
}

// Feed handles GET /user/. Without query parameters it returns every post;
// ?limit and ?before select a newest-first page.
func (h *PostHandler) Feed(c *fiber.Ctx) error {
	opts := services.FeedOptions{Before: c.Query("before")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "limit must be a positive integer"})
		}
		opts.Limit = n
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	page, err := h.svc.Feed(ctx, opts)
	if err != nil {
		return respondError(c, h.log, err, "Invalid cursor")
	}
	if !page.NextCursor.IsZero() {
		c.Set(HeaderNextCursor, page.NextCursor.Hex())
	}
	return c.JSON(page.Posts)
}

func (h *PostHandler) UserPosts(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	posts, err := h.svc.UserPosts(ctx, c.Params("userId"))
	if err != nil {
		return respondError(c, h.log, err, msgInvalidUserID)
	}
	return c.JSON(posts)
}
