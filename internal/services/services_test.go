package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fathima-sithara/social-service/internal/events"
	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/repository"
	"github.com/fathima-sithara/social-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFeedCache struct {
	mu          sync.Mutex
	posts       []models.FeedPost
	ok          bool
	gen         int64
	invalidated int
	// beforeSet runs once, after the listing was loaded and before it is stored.
	beforeSet func()
}

func (c *fakeFeedCache) Get(context.Context) ([]models.FeedPost, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posts, c.gen, c.ok, nil
}

func (c *fakeFeedCache) Set(_ context.Context, gen int64, posts []models.FeedPost) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.posts, c.ok = posts, true
	return nil
}

func (c *fakeFeedCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts, c.ok = nil, false
	c.gen++
	c.invalidated++
	return nil
}

type fixture struct {
	store  *repository.MemoryStore
	cache  *fakeFeedCache
	events *events.Recorder
	tokens *utils.JWTManager
	auth   AuthService
	users  UserService
	posts  PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  repository.NewMemoryStore(),
		cache:  &fakeFeedCache{},
		events: events.NewRecorder(),
		tokens: utils.NewJWTManager("test-secret", time.Hour),
	}
	log := zap.NewNop()
	f.auth = NewAuthService(f.store.Users(), f.tokens, 4, f.events, log)
	f.users = NewUserService(f.store.Users(), f.cache, f.events, log)
	f.posts = NewPostService(f.store.Posts(), f.store.Users(), f.cache, f.events, log)
	return f
}

func (f *fixture) register(t *testing.T, username string) string {
	t.Helper()
	res, err := f.auth.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Name:     username,
		Email:    username + "@x.com",
		Password: "secret1",
		Phone:    "5551234567",
	})
	require.NoError(t, err)
	return res.User.ID.Hex()
}

func TestRegister_DuplicateEmailOrUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	_, err := f.auth.Register(ctx, models.RegisterRequest{
		Username: "alice2", Name: "A", Email: "ALICE@x.com", Password: "secret1", Phone: "5551234567",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = f.auth.Register(ctx, models.RegisterRequest{
		Username: " alice ", Name: "A", Email: "new@x.com", Password: "secret1", Phone: "5551234567",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegister_IssuesTokenForUser(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(context.Background(), models.RegisterRequest{
		Username: "alice", Name: "Alice", Email: "Alice@X.com", Password: "secret1", Phone: "5551234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	sub, err := f.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.Hex(), sub)
	assert.Equal(t, []string{events.UserRegistered}, f.events.Types())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice")

	res, err := f.auth.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = f.auth.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "alice@x.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowThenUnfollowRestoresEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	require.NoError(t, f.users.Follow(ctx, alice, bob))
	assert.ErrorIs(t, f.users.Follow(ctx, alice, bob), ErrAlreadyFollowing)

	ap, err := f.users.Profile(ctx, alice)
	require.NoError(t, err)
	require.Len(t, ap.Following, 1)
	assert.Equal(t, "bob", ap.Following[0].Username)

	bp, err := f.users.Profile(ctx, bob)
	require.NoError(t, err)
	require.Len(t, bp.Followers, 1)
	assert.Equal(t, "alice", bp.Followers[0].Username)

	require.NoError(t, f.users.Unfollow(ctx, alice, bob))
	assert.ErrorIs(t, f.users.Unfollow(ctx, alice, bob), ErrNotFollowing)

	ap, _ = f.users.Profile(ctx, alice)
	bp, _ = f.users.Profile(ctx, bob)
	assert.Empty(t, ap.Following)
	assert.Empty(t, bp.Followers)
}

func TestFollow_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	ghost := "507f1f77bcf86cd799439011"

	assert.ErrorIs(t, f.users.Follow(ctx, "bad", alice), ErrInvalidID)
	assert.ErrorIs(t, f.users.Follow(ctx, alice, alice), ErrSelfFollow)
	assert.ErrorIs(t, f.users.Follow(ctx, ghost, alice), ErrUserNotFound)
	assert.ErrorIs(t, f.users.Follow(ctx, alice, ghost), ErrTargetNotFound)
}

func TestConcurrentFollowKeepsSingleEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.users.Follow(ctx, alice, bob)
		}()
	}
	wg.Wait()

	bp, err := f.users.Profile(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bp.Followers, 1)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	bio := "hello"
	u, err := f.users.UpdateProfile(ctx, alice, models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello", u.Bio)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, 1, f.cache.invalidated)

	long := string(make([]rune, 151))
	_, err = f.users.UpdateProfile(ctx, alice, models.ProfileUpdate{Bio: &long})
	assert.ErrorIs(t, err, ErrBioTooLong)

	_, err = f.users.UpdateProfile(ctx, "507f1f77bcf86cd799439011", models.ProfileUpdate{Bio: &bio})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_TrimsName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	name := "  Alice A  "
	u, err := f.users.UpdateProfile(ctx, alice, models.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice A", u.Name)

	for _, blank := range []string{"", "   "} {
		_, err = f.users.UpdateProfile(ctx, alice, models.ProfileUpdate{Name: &blank})
		assert.ErrorIs(t, err, ErrEmptyName)
	}

	p, err := f.users.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice A", p.Name)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	require.NoError(t, f.users.Delete(ctx, alice))
	assert.ErrorIs(t, f.users.Delete(ctx, alice), ErrUserNotFound)
	assert.ErrorIs(t, f.users.Delete(ctx, "nope"), ErrInvalidID)

	_, err := f.users.Profile(ctx, alice)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	_, err := f.posts.Create(ctx, alice, "hi", nil)
	assert.ErrorIs(t, err, ErrNoImages)
	_, err = f.posts.Create(ctx, alice, "hi", []string{" "})
	assert.ErrorIs(t, err, ErrBlankImage)
	_, err = f.posts.Create(ctx, alice, "  ", []string{"http://img"})
	assert.ErrorIs(t, err, ErrEmptyCaption)
	_, err = f.posts.Create(ctx, "507f1f77bcf86cd799439011", "hi", []string{"http://img"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	page, err := f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Posts, "rejected posts must not be stored")

	p, err := f.posts.Create(ctx, alice, " hi ", []string{"http://img"})
	require.NoError(t, err)
	assert.Equal(t, "hi", p.Caption)

	page, err = f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, p.ID, page.Posts[0].ID)
	require.NotNil(t, page.Posts[0].Author)
	assert.Equal(t, "alice", page.Posts[0].Author.Username)

	prof, err := f.users.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, p.ID, prof.Posts[0])
}

func TestToggleLikeIsInvolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	p, err := f.posts.Create(ctx, alice, "hi", []string{"http://img"})
	require.NoError(t, err)

	liked, err := f.posts.ToggleLike(ctx, p.ID.Hex(), bob)
	require.NoError(t, err)
	require.Len(t, liked.Likes, 1)
	assert.Equal(t, bob, liked.Likes[0].Hex())

	unliked, err := f.posts.ToggleLike(ctx, p.ID.Hex(), bob)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)

	_, err = f.posts.ToggleLike(ctx, "507f1f77bcf86cd799439011", bob)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.posts.ToggleLike(ctx, p.ID.Hex(), "bad")
	assert.ErrorIs(t, err, ErrInvalidID)

	types := f.events.Types()
	assert.Contains(t, types, events.PostLiked)
	assert.Contains(t, types, events.PostUnliked)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	p, err := f.posts.Create(ctx, alice, "hi", []string{"http://img"})
	require.NoError(t, err)

	_, err = f.posts.AddComment(ctx, p.ID.Hex(), alice, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
	_, err = f.posts.AddComment(ctx, p.ID.Hex(), "bad", "nice")
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = f.posts.AddComment(ctx, "507f1f77bcf86cd799439011", alice, "nice")
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = f.posts.AddComment(ctx, p.ID.Hex(), alice, " nice ")
	require.NoError(t, err)

	page, err := f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	require.Len(t, page.Posts[0].Comments, 1)
	assert.Equal(t, "nice", page.Posts[0].Comments[0].Content)
	assert.Equal(t, alice, page.Posts[0].Comments[0].UserID.Hex())
}

func TestFeed_CachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	_, err := f.posts.Create(ctx, alice, "one", []string{"img"})
	require.NoError(t, err)

	_, err = f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	assert.True(t, f.cache.ok)

	_, err = f.posts.Create(ctx, alice, "two", []string{"img"})
	require.NoError(t, err)
	assert.False(t, f.cache.ok)

	page, err := f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
}

func TestFeed_WriteDuringLoadIsNotCachedStale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	_, err := f.posts.Create(ctx, alice, "one", []string{"img"})
	require.NoError(t, err)

	f.cache.beforeSet = func() {
		_, err := f.posts.Create(ctx, alice, "two", []string{"img"})
		require.NoError(t, err)
	}
	page, err := f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.False(t, f.cache.ok)

	page, err = f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.True(t, f.cache.ok)
}

func TestFeed_CursorPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	var ids []string
	for i := 0; i < 5; i++ {
		p, err := f.posts.Create(ctx, alice, "p", []string{"img"})
		require.NoError(t, err)
		ids = append(ids, p.ID.Hex())
	}

	first, err := f.posts.Feed(ctx, FeedOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)
	assert.Equal(t, ids[4], first.Posts[0].ID.Hex())
	assert.Equal(t, ids[3], first.Posts[1].ID.Hex())
	assert.Equal(t, ids[3], first.NextCursor.Hex())

	second, err := f.posts.Feed(ctx, FeedOptions{Limit: 2, Before: first.NextCursor.Hex()})
	require.NoError(t, err)
	require.Len(t, second.Posts, 2)
	assert.Equal(t, ids[2], second.Posts[0].ID.Hex())

	last, err := f.posts.Feed(ctx, FeedOptions{Limit: 2, Before: second.NextCursor.Hex()})
	require.NoError(t, err)
	require.Len(t, last.Posts, 1)
	assert.True(t, last.NextCursor.IsZero())

	_, err = f.posts.Feed(ctx, FeedOptions{Before: "bad"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestFeed_ToleratesDeletedAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	_, err := f.posts.Create(ctx, alice, "hi", []string{"img"})
	require.NoError(t, err)
	require.NoError(t, f.users.Delete(ctx, alice))

	page, err := f.posts.Feed(ctx, FeedOptions{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Nil(t, page.Posts[0].Author)
}

func TestUserPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	_, err := f.posts.Create(ctx, alice, "a", []string{"img"})
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, bob, "b", []string{"img"})
	require.NoError(t, err)

	posts, err := f.posts.UserPosts(ctx, bob)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b", posts[0].Caption)
}

func TestAliceBobScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, models.RegisterRequest{
		Username: "alice", Name: "Alice", Email: "alice@x.com", Password: "secret1", Phone: "5551234567",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)
	aliceID := reg.User.ID.Hex()

	login, err := f.auth.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	_, err = f.auth.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	post, err := f.posts.Create(ctx, aliceID, "hi", []string{"http://img"})
	require.NoError(t, err)

	bobID := f.register(t, "bob")
	liked, err := f.posts.ToggleLike(ctx, post.ID.Hex(), bobID)
	require.NoError(t, err)
	require.Len(t, liked.Likes, 1)
	assert.Equal(t, bobID, liked.Likes[0].Hex())

	unliked, err := f.posts.ToggleLike(ctx, post.ID.Hex(), bobID)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
}
