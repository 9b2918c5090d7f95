package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account record together with its social graph edges.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username       string               `bson:"username" json:"username"`
	Name           string               `bson:"name" json:"name"`
	Email          string               `bson:"email" json:"email"`
	PasswordHash   string               `bson:"password" json:"-"`
	Phone          string               `bson:"phone" json:"phone"`
	Bio            string               `bson:"bio" json:"bio"`
	ProfilePicture string               `bson:"profilePicture" json:"profilePicture"`
	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	Posts          []primitive.ObjectID `bson:"posts" json:"posts"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the slice of a user embedded in follower/following lists.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"_id"`
	Username string             `bson:"username" json:"username"`
	Name     string             `bson:"name" json:"name"`
}

// AuthorSummary is the slice of a user embedded in feed posts.
type AuthorSummary struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Username       string             `bson:"username" json:"username"`
	ProfilePicture string             `bson:"profilePicture" json:"profilePicture"`
}

// Profile is a user with followers and following expanded to summaries.
type Profile struct {
	ID             primitive.ObjectID   `json:"_id"`
	Username       string               `json:"username"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Bio            string               `json:"bio"`
	ProfilePicture string               `json:"profilePicture"`
	Followers      []UserSummary        `json:"followers"`
	Following      []UserSummary        `json:"following"`
	Posts          []primitive.ObjectID `json:"posts"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// ProfileUpdate carries the fields of a partial profile update. Nil fields are left untouched.
type ProfileUpdate struct {
	Name           *string
	Bio            *string
	ProfilePicture *string
}

func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Bio == nil && u.ProfilePicture == nil
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}

func (u *User) AuthorSummary() AuthorSummary {
	return AuthorSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// IsFollowing reports whether id is in u.Following.
func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return containsID(u.Following, id)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
