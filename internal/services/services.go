package services

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/social-service/internal/cache"
	"github.com/fathima-sithara/social-service/internal/events"
	"github.com/fathima-sithara/social-service/internal/metrics"
	"github.com/fathima-sithara/social-service/internal/models"
	"go.uber.org/zap"
)

var (
	ErrUserAlreadyExists  = errors.New("email or username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrTargetNotFound     = errors.New("target user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidID          = errors.New("invalid id")
	ErrEmptyContent       = errors.New("content cannot be empty")
	ErrEmptyCaption       = errors.New("caption cannot be empty")
	ErrNoImages           = errors.New("at least one image is required")
	ErrBlankImage         = errors.New("image entries cannot be blank")
	ErrBioTooLong         = errors.New("bio must be at most 150 characters")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrAlreadyFollowing   = errors.New("already following this user")
	ErrNotFollowing       = errors.New("not following this user")
	ErrSelfFollow         = errors.New("cannot follow yourself")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal server error")
)

const (
	maxBioLength     = 150
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// UserService covers profiles and the follow graph.
type UserService interface {
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, userID string) error
	Follow(ctx context.Context, userID, targetID string) error
	Unfollow(ctx context.Context, userID, targetID string) error
}

// FeedOptions selects a feed page. The zero value asks for the full listing.
type FeedOptions struct {
	Limit  int64
	Before string
}

func (o FeedOptions) paginated() bool {
	return o.Limit > 0 || o.Before != ""
}

type PostService interface {
	Create(ctx context.Context, userID, caption string, images []string) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error)
	AddComment(ctx context.Context, postID, userID, content string) (*models.Post, error)
	Feed(ctx context.Context, opts FeedOptions) (*models.FeedPage, error)
	UserPosts(ctx context.Context, userID string) ([]models.FeedPost, error)
}

// sideEffects runs the best-effort work that follows a committed write.
// Failures are logged and never returned to the caller.
type sideEffects struct {
	feed   cache.FeedCache
	events events.Publisher
	log    *zap.Logger
}

func newSideEffects(feed cache.FeedCache, pub events.Publisher, log *zap.Logger) sideEffects {
	if feed == nil {
		feed = cache.NewNoop()
	}
	if pub == nil {
		pub = events.NewNoop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return sideEffects{feed: feed, events: pub, log: log}
}

func (s sideEffects) publish(ctx context.Context, ev events.Event) {
	metrics.Actions.WithLabelValues(ev.Type).Inc()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish event", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (s sideEffects) invalidateFeed(ctx context.Context) {
	if err := s.feed.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate feed cache", zap.Error(err))
	}
}
