package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
)

// ErrNotLoggedIn is returned by calls that act as the current user before Login or Register.
var ErrNotLoggedIn = errors.New("client: not logged in")

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the social-service REST API. Failed requests are returned
// to the caller as is; nothing is retried.
type Client struct {
	baseURL string
	http    *http.Client

	mu     sync.RWMutex
	token  string
	userID string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSession seeds the client with a token and user id from an earlier login.
func WithSession(token, userID string) Option {
	return func(c *Client) {
		c.token = token
		c.userID = userID
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setSession(res *models.AuthResponse) {
	c.mu.Lock()
	c.token = res.Token
	c.userID = res.UserID
	c.mu.Unlock()
}

func (c *Client) currentUser() (string, error) {
	id := c.UserID()
	if id == "" {
		return "", ErrNotLoggedIn
	}
	return id, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/user/register", req, &res, nil); err != nil {
		return nil, err
	}
	c.setSession(&res)
	return &res, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var res models.AuthResponse
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/user/login", body, &res, nil); err != nil {
		return nil, err
	}
	c.setSession(&res)
	return &res, nil
}

// Feed returns the full feed listing.
func (c *Client) Feed(ctx context.Context) ([]models.FeedPost, error) {
	var posts []models.FeedPost
	if err := c.do(ctx, http.MethodGet, "/user/", nil, &posts, nil); err != nil {
		return nil, err
	}
	return posts, nil
}

// FeedPage returns up to limit posts older than before (newest first) and the
// cursor for the next page, "" when there is none.
func (c *Client) FeedPage(ctx context.Context, limit int, before string) ([]models.FeedPost, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if before != "" {
		q.Set("before", before)
	}

	var (
		posts []models.FeedPost
		hdr   http.Header
	)
	if err := c.do(ctx, http.MethodGet, "/user/?"+q.Encode(), nil, &posts, &hdr); err != nil {
		return nil, "", err
	}
	return posts, hdr.Get("X-Next-Cursor"), nil
}

func (c *Client) UserPosts(ctx context.Context, userID string) ([]models.FeedPost, error) {
	var posts []models.FeedPost
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID)+"/posts", nil, &posts, nil); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID), nil, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile changes the current user's profile. Nil fields are left as they are.
func (c *Client) UpdateProfile(ctx context.Context, name, bio, profilePicture *string) (*models.User, error) {
	uid, err := c.currentUser()
	if err != nil {
		return nil, err
	}
	body := models.UpdateProfileRequest{UserID: uid, Name: name, Bio: bio, ProfilePicture: profilePicture}
	var res struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/user/profile", body, &res, nil); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (c *Client) Follow(ctx context.Context, targetUserID string) error {
	return c.edge(ctx, "/user/follow", targetUserID)
}

func (c *Client) Unfollow(ctx context.Context, targetUserID string) error {
	return c.edge(ctx, "/user/unfollow", targetUserID)
}

func (c *Client) edge(ctx context.Context, path, targetUserID string) error {
	uid, err := c.currentUser()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, models.FollowRequest{UserID: uid, TargetUserID: targetUserID}, nil, nil)
}

func (c *Client) CreatePost(ctx context.Context, caption string, images []string) (*models.Post, error) {
	uid, err := c.currentUser()
	if err != nil {
		return nil, err
	}
	var res struct {
		Post models.Post `json:"post"`
	}
	body := models.CreatePostRequest{UserID: uid, Caption: caption, Image: images}
	if err := c.do(ctx, http.MethodPost, "/user/post", body, &res, nil); err != nil {
		return nil, err
	}
	return &res.Post, nil
}

// ToggleLike flips the current user's like on postID and returns the post as stored.
func (c *Client) ToggleLike(ctx context.Context, postID string) (*models.Post, error) {
	uid, err := c.currentUser()
	if err != nil {
		return nil, err
	}
	var post models.Post
	path := "/user/post/" + url.PathEscape(postID) + "/like"
	if err := c.do(ctx, http.MethodPost, path, models.UserIDRequest{UserID: uid}, &post, nil); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) AddComment(ctx context.Context, postID, content string) (*models.Post, error) {
	uid, err := c.currentUser()
	if err != nil {
		return nil, err
	}
	var res struct {
		Post models.Post `json:"post"`
	}
	path := "/user/post/" + url.PathEscape(postID) + "/comment"
	if err := c.do(ctx, http.MethodPost, path, models.CommentRequest{UserID: uid, Content: content}, &res, nil); err != nil {
		return nil, err
	}
	return &res.Post, nil
}

// DeleteUser deletes the current account and clears the session.
func (c *Client) DeleteUser(ctx context.Context) error {
	uid, err := c.currentUser()
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/user/delete", models.UserIDRequest{UserID: uid}, nil, nil); err != nil {
		return err
	}
	c.setSession(&models.AuthResponse{})
	return nil
}

// do sends body as JSON and decodes a 2xx response into out when out is non-nil.
// When hdr is non-nil it receives the response headers.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, hdr *http.Header) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Message != "" {
			apiErr.Message = eb.Message
		}
		return apiErr
	}

	if hdr != nil {
		*hdr = resp.Header
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
