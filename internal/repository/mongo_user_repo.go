package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/social-service/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoUserRepo struct {
	col          *mongo.Collection
	transactions bool
	log          *zap.Logger
}

// NewMongoUserRepo returns a UserRepository over the given collection and
// makes sure the unique username/email indexes exist.
func NewMongoUserRepo(ctx context.Context, db *mongo.Database, collection string, transactions bool, log *zap.Logger) (UserRepository, error) {
	col := db.Collection(collection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}
	return &mongoUserRepo{col: col, transactions: transactions, log: log}, nil
}

func (r *mongoUserRepo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	normalizeUser(u)

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"email": email},
		{"username": username},
	}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoUserRepo) Summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"username": 1, "name": 1})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	var found []models.UserSummary
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	return orderSummaries(ids, found), nil
}

func (r *mongoUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		set["profilePicture"] = *upd.ProfilePicture
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *mongoUserRepo) Follow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.edge(ctx, userID, targetID, "$addToSet", bson.M{"$ne": targetID})
}

func (r *mongoUserRepo) Unfollow(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.edge(ctx, userID, targetID, "$pull", targetID)
}

// edge applies op ($addToSet or $pull) to userID.following and targetID.followers.
// The follower update is conditional on followingCond so that the existence check
// and the write are one atomic step.
func (r *mongoUserRepo) edge(ctx context.Context, userID, targetID primitive.ObjectID, op string, followingCond interface{}) error {
	write := func(ctx context.Context) error {
		now := time.Now().UTC()
		res, err := r.col.UpdateOne(ctx,
			bson.M{"_id": userID, "following": followingCond},
			bson.M{op: bson.M{"following": targetID}, "$set": bson.M{"updatedAt": now}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNotMatched
		}

		res, err = r.col.UpdateOne(ctx,
			bson.M{"_id": targetID},
			bson.M{op: bson.M{"followers": userID}, "$set": bson.M{"updatedAt": now}},
		)
		if err == nil && res.MatchedCount == 0 {
			err = ErrUserNotFound
		}
		if err != nil && !r.transactions {
			if cerr := r.compensateEdge(userID, targetID, op); cerr != nil {
				r.log.Error("follow edge left one-sided",
					zap.String("user_id", userID.Hex()),
					zap.String("target_id", targetID.Hex()),
					zap.String("op", op),
					zap.NamedError("write_error", err),
					zap.NamedError("compensation_error", cerr),
				)
			}
		}
		return err
	}

	if !r.transactions {
		return write(ctx)
	}

	sess, err := r.col.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, write(sc)
	})
	return err
}

// compensateEdge reverts the follower side of a half-applied edge change.
func (r *mongoUserRepo) compensateEdge(userID, targetID primitive.ObjectID, op string) error {
	undo := "$pull"
	if op == "$pull" {
		undo = "$addToSet"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{undo: bson.M{"following": targetID}})
	return err
}

func (r *mongoUserRepo) AddPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"posts": postID}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// normalizeUser makes sure array fields are stored as empty arrays, not null,
// so that $addToSet and $in behave on fresh records.
func normalizeUser(u *models.User) {
	if u.Followers == nil {
		u.Followers = []primitive.ObjectID{}
	}
	if u.Following == nil {
		u.Following = []primitive.ObjectID{}
	}
	if u.Posts == nil {
		u.Posts = []primitive.ObjectID{}
	}
}

// orderSummaries returns found in the order of ids, dropping ids that did not resolve.
func orderSummaries(ids []primitive.ObjectID, found []models.UserSummary) []models.UserSummary {
	byID := make(map[primitive.ObjectID]models.UserSummary, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
