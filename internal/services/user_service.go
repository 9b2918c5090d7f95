package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fathima-sithara/social-service/internal/cache"
	"github.com/fathima-sithara/social-service/internal/events"
	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/repository"
	"github.com/fathima-sithara/social-service/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type userService struct {
	users repository.UserRepository
	fx    sideEffects
}

func NewUserService(users repository.UserRepository, feed cache.FeedCache, pub events.Publisher, log *zap.Logger) UserService {
	return &userService{users: users, fx: newSideEffects(feed, pub, log)}
}

func (s *userService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	id, err := utils.ParseID(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	u, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	followers, err := s.users.Summaries(ctx, u.Followers)
	if err != nil {
		return nil, fmt.Errorf("load followers: %w", err)
	}
	following, err := s.users.Summaries(ctx, u.Following)
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}

	return &models.Profile{
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Followers:      followers,
		Following:      following,
		Posts:          u.Posts,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	id, err := utils.ParseID(userID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		upd.Name = &name
	}
	if upd.Bio != nil && utf8.RuneCountInString(*upd.Bio) > maxBioLength {
		return nil, ErrBioTooLong
	}
	if upd.Empty() {
		return s.findUser(ctx, id)
	}

	u, err := s.users.UpdateProfile(ctx, id, upd)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	// author summaries embedded in the cached feed may have changed
	s.fx.invalidateFeed(ctx)
	return u, nil
}

func (s *userService) Delete(ctx context.Context, userID string) error {
	id, err := utils.ParseID(userID)
	if err != nil {
		return ErrInvalidID
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.fx.invalidateFeed(ctx)
	s.fx.publish(ctx, events.New(events.UserDeleted, id.Hex()))
	return nil
}

func (s *userService) Follow(ctx context.Context, userID, targetID string) error {
	uid, tid, err := s.edgeEnds(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if err := s.users.Follow(ctx, uid, tid); err != nil {
		return mapEdgeError(err, ErrAlreadyFollowing, "follow")
	}

	ev := events.New(events.UserFollowed, uid.Hex())
	ev.TargetID = tid.Hex()
	s.fx.publish(ctx, ev)
	return nil
}

func (s *userService) Unfollow(ctx context.Context, userID, targetID string) error {
	uid, tid, err := s.edgeEnds(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if err := s.users.Unfollow(ctx, uid, tid); err != nil {
		return mapEdgeError(err, ErrNotFollowing, "unfollow")
	}

	ev := events.New(events.UserUnfollowed, uid.Hex())
	ev.TargetID = tid.Hex()
	s.fx.publish(ctx, ev)
	return nil
}

// edgeEnds validates both ends of a follow edge and checks that they exist.
func (s *userService) edgeEnds(ctx context.Context, userID, targetID string) (primitive.ObjectID, primitive.ObjectID, error) {
	uid, err1 := utils.ParseID(userID)
	tid, err2 := utils.ParseID(targetID)
	if err1 != nil || err2 != nil {
		return uid, tid, ErrInvalidID
	}
	if uid == tid {
		return uid, tid, ErrSelfFollow
	}
	if _, err := s.findUser(ctx, uid); err != nil {
		return uid, tid, err
	}
	if _, err := s.findUser(ctx, tid); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return uid, tid, ErrTargetNotFound
		}
		return uid, tid, err
	}
	return uid, tid, nil
}

func mapEdgeError(err, notMatched error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotMatched):
		return notMatched
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrTargetNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (s *userService) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
