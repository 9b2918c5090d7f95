package client

import (
	"context"

	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session couples a Client with the local state it keeps in sync.
// On a failed request the local state is left as it was before the call.
type Session struct {
	Client  *Client
	Feed    *FeedState
	Profile *ProfileState
}

func NewSession(c *Client) *Session {
	return &Session{Client: c, Feed: NewFeedState(), Profile: NewProfileState()}
}

func (s *Session) RefreshFeed(ctx context.Context) error {
	posts, err := s.Client.Feed(ctx)
	if err != nil {
		return err
	}
	s.Feed.Replace(posts)
	return nil
}

func (s *Session) LoadProfile(ctx context.Context) (*models.Profile, error) {
	uid, err := s.Client.currentUser()
	if err != nil {
		return nil, err
	}
	p, err := s.Client.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	s.Profile.Set(p)
	return p, nil
}

// ToggleLike flips the like locally first, then reconciles with the server's answer.
func (s *Session) ToggleLike(ctx context.Context, postID string) error {
	pid, uid, err := s.ids(postID)
	if err != nil {
		return err
	}

	before, known := s.Feed.Get(pid)
	s.Feed.ApplyLocalLike(pid, uid)

	post, err := s.Client.ToggleLike(ctx, postID)
	if err != nil {
		if known {
			s.Feed.Restore(before)
		}
		return err
	}
	s.Feed.Upsert(post)
	return nil
}

func (s *Session) Comment(ctx context.Context, postID, content string) error {
	post, err := s.Client.AddComment(ctx, postID, content)
	if err != nil {
		return err
	}
	s.Feed.Upsert(post)
	return nil
}

// CreatePost publishes a post and puts it at the top of the local feed.
func (s *Session) CreatePost(ctx context.Context, caption string, images []string) (*models.Post, error) {
	post, err := s.Client.CreatePost(ctx, caption, images)
	if err != nil {
		return nil, err
	}

	fp := fromPost(post, nil)
	if p := s.Profile.Get(); p != nil && p.ID == post.Author {
		fp.Author = &models.AuthorSummary{ID: p.ID, Username: p.Username, ProfilePicture: p.ProfilePicture}
	}
	s.Feed.Prepend(fp)
	return post, nil
}

func (s *Session) UpdateProfile(ctx context.Context, name, bio, profilePicture *string) (*models.User, error) {
	u, err := s.Client.UpdateProfile(ctx, name, bio, profilePicture)
	if err != nil {
		return nil, err
	}
	s.Profile.Apply(u)
	return u, nil
}

func (s *Session) ids(postID string) (pid, uid primitive.ObjectID, err error) {
	uidStr, err := s.Client.currentUser()
	if err != nil {
		return pid, uid, err
	}
	p, err := utils.ParseID(postID)
	if err != nil {
		return pid, uid, err
	}
	u, err := utils.ParseID(uidStr)
	if err != nil {
		return pid, uid, err
	}
	return p, u, nil
}
