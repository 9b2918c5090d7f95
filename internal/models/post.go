package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Author    primitive.ObjectID   `bson:"author" json:"author"`
	Caption   string               `bson:"caption" json:"caption"`
	Image     []string             `bson:"image" json:"image"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments  []Comment            `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Comment is embedded in its parent post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// FeedPost is a post as served by the feed, with the author expanded.
// Author is nil when the author record no longer exists.
type FeedPost struct {
	ID        primitive.ObjectID   `bson:"_id" json:"_id"`
	Author    *AuthorSummary       `bson:"author,omitempty" json:"author"`
	Caption   string               `bson:"caption" json:"caption"`
	Image     []string             `bson:"image" json:"image"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments  []Comment            `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// LikedBy reports whether userID is in the post's likes.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	return containsID(p.Likes, userID)
}

// FeedPage is a cursor-limited slice of the feed.
type FeedPage struct {
	Posts []FeedPost
	// NextCursor is the id to pass as "before" for the next page, zero when exhausted.
	NextCursor primitive.ObjectID
}
