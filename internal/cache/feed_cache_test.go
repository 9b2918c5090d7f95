package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNoopNeverHits(t *testing.T) {
	c := NewNoop()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, 0, []models.FeedPost{{ID: primitive.NewObjectID()}}))
	_, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx))
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestRedisFeedCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	cli := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = cli.Close() })

	c := NewRedisFeedCache(cli, time.Minute)
	require.NoError(t, c.Invalidate(ctx))

	_, gen, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	post := models.FeedPost{
		ID:      primitive.NewObjectID(),
		Author:  &models.AuthorSummary{ID: primitive.NewObjectID(), Username: "alice"},
		Caption: "hi",
	}
	require.NoError(t, c.Set(ctx, gen, []models.FeedPost{post}))

	got, gen, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, post.ID, got[0].ID)
	assert.Equal(t, "alice", got[0].Author.Username)

	require.NoError(t, c.Invalidate(ctx))
	_, _, ok, _ = c.Get(ctx)
	assert.False(t, ok)

	// a listing read before the invalidation must not be stored
	require.NoError(t, c.Set(ctx, gen, []models.FeedPost{post}))
	_, _, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}
