package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fathima-sithara/social-service/internal/cache"
	"github.com/fathima-sithara/social-service/internal/events"
	"github.com/fathima-sithara/social-service/internal/metrics"
	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/repository"
	"github.com/fathima-sithara/social-service/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type postService struct {
	posts repository.PostRepository
	users repository.UserRepository
	fx    sideEffects
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, feed cache.FeedCache, pub events.Publisher, log *zap.Logger) PostService {
	return &postService{posts: posts, users: users, fx: newSideEffects(feed, pub, log)}
}

func (s *postService) Create(ctx context.Context, userID, caption string, images []string) (*models.Post, error) {
	authorID, err := utils.ParseID(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil, ErrEmptyCaption
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	cleaned := make([]string, len(images))
	for i, img := range images {
		cleaned[i] = strings.TrimSpace(img)
		if cleaned[i] == "" {
			return nil, ErrBlankImage
		}
	}

	if _, err := s.users.FindByID(ctx, authorID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find author: %w", err)
	}

	p := &models.Post{Author: authorID, Caption: caption, Image: cleaned}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := s.users.AddPost(ctx, authorID, p.ID); err != nil {
		// the author vanished between the check and the push; do not leave an orphan
		if delErr := s.posts.Delete(ctx, p.ID); delErr != nil {
			s.fx.log.Error("failed to remove orphaned post", zap.String("post_id", p.ID.Hex()), zap.Error(delErr))
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("link post to author: %w", err)
	}

	s.fx.invalidateFeed(ctx)
	ev := events.New(events.PostCreated, authorID.Hex())
	ev.PostID = p.ID.Hex()
	s.fx.publish(ctx, ev)
	return p, nil
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	pid, uid, err := parsePair(postID, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.posts.ToggleLike(ctx, pid, uid)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}

	s.fx.invalidateFeed(ctx)
	typ := events.PostUnliked
	if p.LikedBy(uid) {
		typ = events.PostLiked
	}
	ev := events.New(typ, uid.Hex())
	ev.PostID = pid.Hex()
	ev.TargetID = p.Author.Hex()
	s.fx.publish(ctx, ev)
	return p, nil
}

func (s *postService) AddComment(ctx context.Context, postID, userID, content string) (*models.Post, error) {
	pid, uid, err := parsePair(postID, userID)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	c := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	p, err := s.posts.AddComment(ctx, pid, c)
	if errors.Is(err, repository.ErrPostNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	s.fx.invalidateFeed(ctx)
	ev := events.New(events.CommentAdded, uid.Hex())
	ev.PostID = pid.Hex()
	ev.TargetID = p.Author.Hex()
	s.fx.publish(ctx, ev)
	return p, nil
}

func (s *postService) Feed(ctx context.Context, opts FeedOptions) (*models.FeedPage, error) {
	if !opts.paginated() {
		posts, err := s.fullFeed(ctx)
		if err != nil {
			return nil, err
		}
		return &models.FeedPage{Posts: posts}, nil
	}

	q := repository.FeedQuery{Limit: clampLimit(opts.Limit)}
	if opts.Before != "" {
		before, err := utils.ParseID(opts.Before)
		if err != nil {
			return nil, ErrInvalidID
		}
		q.Before = before
	}

	limit := q.Limit
	// one extra row tells us whether another page exists
	q.Limit++
	posts, err := s.posts.Feed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}

	page := &models.FeedPage{Posts: posts}
	if int64(len(posts)) > limit {
		page.Posts = posts[:limit]
		page.NextCursor = page.Posts[limit-1].ID
	}
	return page, nil
}

func (s *postService) fullFeed(ctx context.Context) ([]models.FeedPost, error) {
	cached, gen, ok, err := s.fx.feed.Get(ctx)
	readable := err == nil
	switch {
	case err != nil:
		metrics.FeedCacheLookups.WithLabelValues("error").Inc()
		s.fx.log.Warn("feed cache read failed", zap.Error(err))
	case ok:
		metrics.FeedCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.FeedCacheLookups.WithLabelValues("miss").Inc()
	}

	posts, err := s.posts.Feed(ctx, repository.FeedQuery{})
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	if !readable {
		return posts, nil
	}
	// skipped by the cache if a write invalidated it while we were loading
	if err := s.fx.feed.Set(ctx, gen, posts); err != nil {
		s.fx.log.Warn("feed cache write failed", zap.Error(err))
	}
	return posts, nil
}

func (s *postService) UserPosts(ctx context.Context, userID string) ([]models.FeedPost, error) {
	id, err := utils.ParseID(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	posts, err := s.posts.Feed(ctx, repository.FeedQuery{Author: id})
	if err != nil {
		return nil, fmt.Errorf("list user posts: %w", err)
	}
	return posts, nil
}

func parsePair(postID, userID string) (primitive.ObjectID, primitive.ObjectID, error) {
	pid, err := utils.ParseID(postID)
	if err != nil {
		return pid, primitive.NilObjectID, ErrInvalidID
	}
	uid, err := utils.ParseID(userID)
	if err != nil {
		return pid, uid, ErrInvalidID
	}
	return pid, uid, nil
}

func clampLimit(n int64) int64 {
	switch {
	case n <= 0:
		return defaultPageLimit
	case n > maxPageLimit:
		return maxPageLimit
	default:
		return n
	}
}
