package repository

import (
	"context"
	"testing"

	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func updatesSent(mt *mtest.T) []*event.CommandStartedEvent {
	var out []*event.CommandStartedEvent
	for _, ev := range mt.GetAllStartedEvents() {
		if ev.CommandName == "update" {
			out = append(out, ev)
		}
	}
	return out
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestMongoUsers_Follow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("creates indexes and both edges", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo, err := NewMongoUserRepo(context.Background(), mt.DB, mt.Coll.Name(), false, zap.NewNop())
		require.NoError(mt, err)

		mt.AddMockResponses(matched(1), matched(1))
		require.NoError(mt, repo.Follow(context.Background(), alice, bob))

		ups := updatesSent(mt)
		require.Len(mt, ups, 2)
		q, ok := ups[0].Command.Lookup("updates", "0", "q", "following", "$ne").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, bob, q)
		target, ok := ups[1].Command.Lookup("updates", "0", "u", "$addToSet", "followers").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, alice, target)
	})

	mt.Run("already following", func(mt *mtest.T) {
		repo := &mongoUserRepo{col: mt.Coll, log: zap.NewNop()}
		mt.AddMockResponses(matched(0))

		err := repo.Follow(context.Background(), alice, bob)
		assert.ErrorIs(mt, err, ErrNotMatched)
		assert.Len(mt, updatesSent(mt), 1)
	})

	mt.Run("missing target is compensated", func(mt *mtest.T) {
		repo := &mongoUserRepo{col: mt.Coll, log: zap.NewNop()}
		mt.AddMockResponses(matched(1), matched(0), matched(1))

		err := repo.Follow(context.Background(), alice, bob)
		assert.ErrorIs(mt, err, ErrUserNotFound)

		ups := updatesSent(mt)
		require.Len(mt, ups, 3)
		undo, ok := ups[2].Command.Lookup("updates", "0", "u", "$pull", "following").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, bob, undo)
	})

	mt.Run("failed compensation is logged", func(mt *mtest.T) {
		core, logs := observer.New(zap.ErrorLevel)
		repo := &mongoUserRepo{col: mt.Coll, log: zap.New(core)}
		mt.AddMockResponses(
			matched(1),
			matched(0),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}),
		)

		err := repo.Follow(context.Background(), alice, bob)
		assert.ErrorIs(mt, err, ErrUserNotFound)

		entries := logs.FilterMessage("follow edge left one-sided").All()
		require.Len(mt, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(mt, alice.Hex(), fields["user_id"])
		assert.Equal(mt, "$addToSet", fields["op"])
		assert.Contains(mt, fields, "compensation_error")
	})
}

func TestMongoUsers_UnfollowCompensatesWithAddToSet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("unfollow", func(mt *mtest.T) {
		repo := &mongoUserRepo{col: mt.Coll, log: zap.NewNop()}
		mt.AddMockResponses(matched(1), matched(0), matched(1))

		assert.ErrorIs(mt, repo.Unfollow(context.Background(), alice, bob), ErrUserNotFound)
		ups := updatesSent(mt)
		require.Len(mt, ups, 3)
		redo, ok := ups[2].Command.Lookup("updates", "0", "u", "$addToSet", "following").ObjectIDOK()
		require.True(mt, ok)
		assert.Equal(mt, bob, redo)
	})
}

func TestMongoUsers_AddPostAndDelete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing author", func(mt *mtest.T) {
		repo := &mongoUserRepo{col: mt.Coll, log: zap.NewNop()}
		mt.AddMockResponses(matched(0))
		assert.ErrorIs(mt, repo.AddPost(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()), ErrUserNotFound)
	})

	mt.Run("delete missing user", func(mt *mtest.T) {
		repo := &mongoUserRepo{col: mt.Coll, log: zap.NewNop()}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.ErrorIs(mt, repo.Delete(context.Background(), primitive.NewObjectID()), ErrUserNotFound)
	})
}

func TestMongoUsers_SummariesKeepRequestOrder(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("summaries", func(mt *mtest.T) {
		repo := &mongoUserRepo{col: mt.Coll, log: zap.NewNop()}
		alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: alice}, {Key: "username", Value: "alice"}, {Key: "name", Value: "Alice"}},
			bson.D{{Key: "_id", Value: bob}, {Key: "username", Value: "bob"}, {Key: "name", Value: "Bob"}},
		))

		got, err := repo.Summaries(context.Background(), []primitive.ObjectID{bob, primitive.NewObjectID(), alice})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "bob", got[0].Username)
		assert.Equal(mt, "alice", got[1].Username)
	})
}

func TestMongoPosts_ToggleLike(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	postID, bob := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("pipeline update", func(mt *mtest.T) {
		repo := &mongoPostRepo{col: mt.Coll, users: "users"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: postID},
			{Key: "caption", Value: "hi"},
			{Key: "likes", Value: bson.A{bob}},
		}}))

		p, err := repo.ToggleLike(context.Background(), postID, bob)
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{bob}, p.Likes)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "findAndModify", ev.CommandName)
		update := ev.Command.Lookup("update")
		assert.Equal(mt, bson.TypeArray, update.Type)
		assert.NotEmpty(mt, update.Array().Lookup("0", "$set", "likes", "$cond").Value)
		assert.True(mt, ev.Command.Lookup("new").Boolean())
	})

	mt.Run("missing post", func(mt *mtest.T) {
		repo := &mongoPostRepo{col: mt.Coll, users: "users"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.ToggleLike(context.Background(), postID, bob)
		assert.ErrorIs(mt, err, ErrPostNotFound)
	})
}

func TestMongoPosts_AddCommentPushesEmbedded(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("comment", func(mt *mtest.T) {
		repo := &mongoPostRepo{col: mt.Coll, users: "users"}
		postID := primitive.NewObjectID()
		c := models.Comment{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Content: "nice"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: postID},
			{Key: "comments", Value: bson.A{bson.D{
				{Key: "_id", Value: c.ID},
				{Key: "userId", Value: c.UserID},
				{Key: "content", Value: "nice"},
			}}},
		}}))

		p, err := repo.AddComment(context.Background(), postID, c)
		require.NoError(mt, err)
		require.Len(mt, p.Comments, 1)
		assert.Equal(mt, "nice", p.Comments[0].Content)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		content, ok := ev.Command.Lookup("update", "$push", "comments", "content").StringValueOK()
		require.True(mt, ok)
		assert.Equal(mt, "nice", content)
	})
}

func TestMongoPosts_FeedDecodesMissingAuthor(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("feed", func(mt *mtest.T) {
		repo := &mongoPostRepo{col: mt.Coll, users: "users"}
		authorID := primitive.NewObjectID()
		withAuthor, orphan := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: withAuthor},
				{Key: "caption", Value: "one"},
				{Key: "author", Value: bson.D{{Key: "_id", Value: authorID}, {Key: "username", Value: "alice"}}},
			},
			bson.D{{Key: "_id", Value: orphan}, {Key: "caption", Value: "two"}},
		))

		posts, err := repo.Feed(context.Background(), FeedQuery{Limit: 2})
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		require.NotNil(mt, posts[0].Author)
		assert.Equal(mt, "alice", posts[0].Author.Username)
		assert.Equal(mt, orphan, posts[1].ID)
		assert.Nil(mt, posts[1].Author)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "aggregate", ev.CommandName)
		stages, err := ev.Command.Lookup("pipeline").Array().Values()
		require.NoError(mt, err)
		var names []string
		for _, st := range stages {
			elems, err := st.Document().Elements()
			require.NoError(mt, err)
			names = append(names, elems[0].Key())
		}
		assert.Equal(mt, []string{"$sort", "$limit", "$lookup", "$unwind", "$project"}, names)
		assert.Equal(mt, "users", ev.Command.Lookup("pipeline", "2", "$lookup", "from").StringValue())
	})
}
