package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	feedKey = "feed:all"
	// genKey is bumped on every invalidation so that a listing loaded before a
	// write cannot be stored after it.
	genKey = "feed:gen"
)

// FeedCache holds the full, unpaginated feed listing.
type FeedCache interface {
	// Get returns the cached listing and the generation it was read at.
	// gen is valid on a miss too and must be handed back to Set.
	Get(ctx context.Context) (posts []models.FeedPost, gen int64, ok bool, err error)
	// Set stores posts unless the cache was invalidated after gen was read.
	Set(ctx context.Context, gen int64, posts []models.FeedPost) error
	Invalidate(ctx context.Context) error
}

type redisFeedCache struct {
	cli *redis.Client
	ttl time.Duration
}

func NewRedisFeedCache(cli *redis.Client, ttl time.Duration) FeedCache {
	return &redisFeedCache{cli: cli, ttl: ttl}
}

func (c *redisFeedCache) Get(ctx context.Context) ([]models.FeedPost, int64, bool, error) {
	vals, err := c.cli.MGet(ctx, feedKey, genKey).Result()
	if err != nil {
		return nil, 0, false, err
	}
	gen, err := parseGen(vals[1])
	if err != nil {
		return nil, 0, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false, nil
	}
	var posts []models.FeedPost
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		// corrupt entry; treat as a miss so it gets rewritten
		return nil, gen, false, nil
	}
	return posts, gen, true, nil
}

func (c *redisFeedCache) Set(ctx context.Context, gen int64, posts []models.FeedPost) error {
	b, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	err = c.cli.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, feedKey, b, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated while we were writing
		return nil
	}
	return err
}

func (c *redisFeedCache) Invalidate(ctx context.Context) error {
	_, err := c.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Del(ctx, feedKey)
		return nil
	})
	return err
}

func parseGen(v interface{}) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

type noopFeedCache struct{}

// NewNoop returns a cache that never hits. Used when Redis is not configured.
func NewNoop() FeedCache { return noopFeedCache{} }

func (noopFeedCache) Get(context.Context) ([]models.FeedPost, int64, bool, error) {
	return nil, 0, false, nil
}
func (noopFeedCache) Set(context.Context, int64, []models.FeedPost) error { return nil }
func (noopFeedCache) Invalidate(context.Context) error                    { return nil }
