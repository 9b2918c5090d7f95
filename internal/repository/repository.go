package repository

import (
	"context"
	"errors"

	"github.com/fathima-sithara/social-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPostNotFound = errors.New("post not found")
	// ErrDuplicate is returned when a unique key (username, email) is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrNotMatched is returned when a conditional update found no document in the expected state.
	ErrNotMatched = errors.New("document not in expected state")
)

// UserRepository defines the user store operations.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Follow adds the userID -> targetID edge on both records.
	// ErrNotMatched means the edge already exists.
	Follow(ctx context.Context, userID, targetID primitive.ObjectID) error
	// Unfollow removes the userID -> targetID edge on both records.
	// ErrNotMatched means there was no edge.
	Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error
	AddPost(ctx context.Context, userID, postID primitive.ObjectID) error
}

// FeedQuery selects posts for a feed listing. Zero values mean "no constraint".
type FeedQuery struct {
	Author primitive.ObjectID
	Before primitive.ObjectID
	Limit  int64
}

// Paginated reports whether the query asks for a newest-first cursor page.
func (q FeedQuery) Paginated() bool {
	return q.Limit > 0 || !q.Before.IsZero()
}

// PostRepository defines the post store operations.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// ToggleLike removes userID from the likes set if present, adds it otherwise,
	// and returns the post after the update.
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, c models.Comment) (*models.Post, error)
	Feed(ctx context.Context, q FeedQuery) ([]models.FeedPost, error)
}
