package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps users and posts in process memory. It backs the
// "memory" store driver and the tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
	posts map[primitive.ObjectID]*models.Post
	// order keeps post insertion order, the natural order of the feed.
	order []primitive.ObjectID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[primitive.ObjectID]*models.User),
		posts: make(map[primitive.ObjectID]*models.Post),
	}
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }
func (s *MemoryStore) Posts() PostRepository { return memoryPosts{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, u *models.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	normalizeUser(u)
	m.s.users[u.ID] = copyUser(u)
	return nil
}

func (m memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (m memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, u := range m.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m memoryUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, u := range m.s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m memoryUsers) Summaries(_ context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.s.users[id]; ok {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func (m memoryUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (m memoryUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.s.users, id)
	return nil
}

func (m memoryUsers) Follow(_ context.Context, userID, targetID primitive.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[userID]
	if !ok || u.IsFollowing(targetID) {
		return ErrNotMatched
	}
	t, ok := m.s.users[targetID]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now().UTC()
	u.Following = append(u.Following, targetID)
	u.UpdatedAt = now
	t.Followers = addID(t.Followers, userID)
	t.UpdatedAt = now
	return nil
}

func (m memoryUsers) Unfollow(_ context.Context, userID, targetID primitive.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[userID]
	if !ok || !u.IsFollowing(targetID) {
		return ErrNotMatched
	}
	t, ok := m.s.users[targetID]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now().UTC()
	u.Following = removeID(u.Following, targetID)
	u.UpdatedAt = now
	t.Followers = removeID(t.Followers, userID)
	t.UpdatedAt = now
	return nil
}

func (m memoryUsers) AddPost(_ context.Context, userID, postID primitive.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	u, ok := m.s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Posts = append(u.Posts, postID)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryPosts struct{ s *MemoryStore }

func (m memoryPosts) Create(_ context.Context, p *models.Post) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Likes == nil {
		p.Likes = []primitive.ObjectID{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	m.s.posts[p.ID] = copyPost(p)
	m.s.order = append(m.s.order, p.ID)
	return nil
}

func (m memoryPosts) Delete(_ context.Context, id primitive.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(m.s.posts, id)
	m.s.order = removeID(m.s.order, id)
	return nil
}

func (m memoryPosts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	p, ok := m.s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	return copyPost(p), nil
}

func (m memoryPosts) ToggleLike(_ context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	p, ok := m.s.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	if p.LikedBy(userID) {
		p.Likes = removeID(p.Likes, userID)
	} else {
		p.Likes = append(p.Likes, userID)
	}
	p.UpdatedAt = time.Now().UTC()
	return copyPost(p), nil
}

func (m memoryPosts) AddComment(_ context.Context, postID primitive.ObjectID, c models.Comment) (*models.Post, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	p, ok := m.s.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = time.Now().UTC()
	return copyPost(p), nil
}

func (m memoryPosts) Feed(_ context.Context, q FeedQuery) ([]models.FeedPost, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(m.s.order))
	for _, id := range m.s.order {
		p := m.s.posts[id]
		if !q.Author.IsZero() && p.Author != q.Author {
			continue
		}
		if !q.Before.IsZero() && bytes.Compare(id[:], q.Before[:]) >= 0 {
			continue
		}
		ids = append(ids, id)
	}
	if q.Paginated() {
		sort.Slice(ids, func(i, j int) bool {
			return bytes.Compare(ids[i][:], ids[j][:]) > 0
		})
	}
	if q.Limit > 0 && int64(len(ids)) > q.Limit {
		ids = ids[:q.Limit]
	}

	out := make([]models.FeedPost, 0, len(ids))
	for _, id := range ids {
		p := copyPost(m.s.posts[id])
		fp := models.FeedPost{
			ID:        p.ID,
			Caption:   p.Caption,
			Image:     p.Image,
			Likes:     p.Likes,
			Comments:  p.Comments,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
		if u, ok := m.s.users[p.Author]; ok {
			a := u.AuthorSummary()
			fp.Author = &a
		}
		out = append(out, fp)
	}
	return out, nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Followers = append([]primitive.ObjectID{}, u.Followers...)
	c.Following = append([]primitive.ObjectID{}, u.Following...)
	c.Posts = append([]primitive.ObjectID{}, u.Posts...)
	return &c
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Image = append([]string{}, p.Image...)
	c.Likes = append([]primitive.ObjectID{}, p.Likes...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
