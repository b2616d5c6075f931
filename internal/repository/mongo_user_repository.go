package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"userauth/api/internal/models"
)

type MongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepository(coll *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{coll: coll, now: time.Now}
}

func (r *MongoUserRepository) Create(ctx context.Context, user models.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time) (models.User, error) {
	if token == "" {
		return models.User{}, ErrUserNotFound
	}

	filter := bson.M{
		"resetPassword.token":     token,
		"resetPassword.expiresAt": bson.M{"$gt": now},
	}
	update := bson.M{
		"$unset": bson.M{"resetPassword": ""},
		"$set":   bson.M{"updatedAt": now},
	}
	return r.findOneAndUpdate(ctx, filter, update)
}

func (r *MongoUserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if update.Empty() {
		return r.FindByID(ctx, id)
	}

	doc := userUpdateDocument(update, r.now().UTC())
	user, err := r.findOneAndUpdate(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *MongoUserRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"resetPassword.expiresAt": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"resetPassword": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// userUpdateDocument turns a sparse update into $set/$unset operators. Null
// optional fields are removed from the document rather than stored as null.
func userUpdateDocument(update models.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	unset := bson.M{}

	if update.Name.Set {
		set["name"] = update.Name.Value
	}
	if update.Email.Set {
		set["email"] = update.Email.Value
	}
	if update.Phone.Set {
		if update.Phone.Null {
			unset["phone"] = ""
		} else {
			set["phone"] = update.Phone.Value
		}
	}
	if update.ImageURL.Set {
		if update.ImageURL.Null {
			unset["imageUrl"] = ""
		} else {
			set["imageUrl"] = update.ImageURL.Value
		}
	}
	if update.PasswordHash.Set {
		set["password"] = update.PasswordHash.Value
	}
	if update.Reset.Set {
		if update.Reset.Null || update.Reset.Value == nil {
			unset["resetPassword"] = ""
		} else {
			set["resetPassword"] = *update.Reset.Value
		}
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}
