package client

import (
	"sync"

	"github.com/fathima-sithara/social-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedState is the locally held feed. Server responses are merged into it by post id.
type FeedState struct {
	mu    sync.RWMutex
	posts []models.FeedPost
}

func NewFeedState() *FeedState { return &FeedState{} }

// Posts returns a copy of the current list.
func (s *FeedState) Posts() []models.FeedPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FeedPost, len(s.posts))
	for i, p := range s.posts {
		out[i] = clonePost(p)
	}
	return out
}

func (s *FeedState) Replace(posts []models.FeedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = make([]models.FeedPost, len(posts))
	for i, p := range posts {
		s.posts[i] = clonePost(p)
	}
}

// Prepend puts a newly created post at the top of the feed.
func (s *FeedState) Prepend(p models.FeedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append([]models.FeedPost{clonePost(p)}, s.posts...)
}

func (s *FeedState) Get(postID primitive.ObjectID) (models.FeedPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(postID); i >= 0 {
		return clonePost(s.posts[i]), true
	}
	return models.FeedPost{}, false
}

// ApplyLocalLike toggles userID in the post's likes without a server round trip.
// It reports whether the post is now liked, and false if the post is unknown.
func (s *FeedState) ApplyLocalLike(postID, userID primitive.ObjectID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(postID)
	if i < 0 {
		return false
	}
	p := &s.posts[i]
	for j, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:j:j], p.Likes[j+1:]...)
			return false
		}
	}
	p.Likes = append(p.Likes, userID)
	return true
}

// Upsert reconciles a post returned by the server. The expanded author of an
// existing entry is kept, since mutation responses carry only the author id.
func (s *FeedState) Upsert(p *models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(p.ID)
	if i < 0 {
		s.posts = append([]models.FeedPost{fromPost(p, nil)}, s.posts...)
		return
	}
	s.posts[i] = fromPost(p, s.posts[i].Author)
}

// Restore puts back a snapshot taken with Get.
func (s *FeedState) Restore(p models.FeedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(p.ID); i >= 0 {
		s.posts[i] = clonePost(p)
	}
}

func (s *FeedState) AppendComment(postID primitive.ObjectID, c models.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(postID)
	if i < 0 {
		return false
	}
	s.posts[i].Comments = append(s.posts[i].Comments, c)
	return true
}

// FilterByAuthor returns the posts written by authorID, the way the profile screen lists them.
func (s *FeedState) FilterByAuthor(authorID primitive.ObjectID) []models.FeedPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.FeedPost
	for _, p := range s.posts {
		if p.Author != nil && p.Author.ID == authorID {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (s *FeedState) LikedBy(postID, userID primitive.ObjectID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(postID)
	if i < 0 {
		return false
	}
	for _, id := range s.posts[i].Likes {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *FeedState) index(id primitive.ObjectID) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// ProfileState holds the profile of the signed-in user.
type ProfileState struct {
	mu      sync.RWMutex
	profile *models.Profile
}

func NewProfileState() *ProfileState { return &ProfileState{} }

func (s *ProfileState) Set(p *models.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

func (s *ProfileState) Get() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	cp := *s.profile
	return &cp
}

// Apply merges the editable fields of an updated user record.
func (s *ProfileState) Apply(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil || s.profile.ID != u.ID {
		return
	}
	s.profile.Name = u.Name
	s.profile.Bio = u.Bio
	s.profile.ProfilePicture = u.ProfilePicture
	s.profile.UpdatedAt = u.UpdatedAt
}

func fromPost(p *models.Post, author *models.AuthorSummary) models.FeedPost {
	return clonePost(models.FeedPost{
		ID:        p.ID,
		Author:    author,
		Caption:   p.Caption,
		Image:     p.Image,
		Likes:     p.Likes,
		Comments:  p.Comments,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	})
}

func clonePost(p models.FeedPost) models.FeedPost {
	p.Image = append([]string{}, p.Image...)
	p.Likes = append([]primitive.ObjectID{}, p.Likes...)
	p.Comments = append([]models.Comment{}, p.Comments...)
	if p.Author != nil {
		a := *p.Author
		p.Author = &a
	}
	return p
}
