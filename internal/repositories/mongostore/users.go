package mongostore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"renTrentoBack/internal/models"
)

type userDoc struct {
	ID           string               `bson:"_id"`
	UserName     string               `bson:"userName"`
	Email        string               `bson:"email"`
	PasswordHash string               `bson:"passwordHash"`
	Role         string               `bson:"role"`
	Wallet       primitive.Decimal128 `bson:"wallet"`
	FCMToken     string               `bson:"fcmToken"`
	LockVersion  int64                `bson:"lockVersion"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func newUserDoc(u models.User) (userDoc, error) {
	wallet, err := toDecimal128(u.Wallet)
	if err != nil {
		return userDoc{}, err
	}
	return userDoc{
		ID:           u.ID,
		UserName:     u.UserName,
		Email:        u.Email,
		PasswordHash: u.Password,
		Role:         u.Role,
		Wallet:       wallet,
		FCMToken:     u.FCMToken,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (d userDoc) model() (models.User, error) {
	wallet, err := fromDecimal128(d.Wallet)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:        d.ID,
		UserName:  d.UserName,
		Email:     d.Email,
		Password:  d.PasswordHash,
		Role:      d.Role,
		Wallet:    wallet,
		FCMToken:  d.FCMToken,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

type UserRepository struct {
	coll *mongo.Collection
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	doc, err := newUserDoc(user)
	if err != nil {
		return models.User{}, err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return models.User{}, translate(err, "create user")
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "get user", bson.M{"_id": id})
}

// GetUserByIDForUpdate bumps a lock counter so that concurrent transactions
// touching the same user conflict and retry.
func (r *UserRepository) GetUserByIDForUpdate(ctx context.Context, id string) (models.User, error) {
	var doc userDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"lockVersion": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return models.User{}, translate(err, "lock user")
	}
	return doc.model()
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "get user by email", bson.M{"email": email})
}

func (r *UserRepository) GetUserByUserName(ctx context.Context, userName string) (models.User, error) {
	return r.findOne(ctx, "get user by name", bson.M{"userName": userName})
}

func (r *UserRepository) findOne(ctx context.Context, op string, filter bson.M) (models.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.User{}, translate(err, op)
	}
	return doc.model()
}

func (r *UserRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, translate(err, "list users")
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translate(err, "list users")
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.model()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user models.User) error {
	update := bson.M{"$set": bson.M{
		"userName":     user.UserName,
		"email":        user.Email,
		"passwordHash": user.Password,
		"role":         user.Role,
		"fcmToken":     user.FCMToken,
		"updatedAt":    user.UpdatedAt,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return translate(err, "update user")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update user")
	}
	return nil
}

func (r *UserRepository) UpdateWallet(ctx context.Context, id string, wallet decimal.Decimal) error {
	value, err := toDecimal128(wallet)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"wallet": value, "updatedAt": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err, "update wallet")
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, "update wallet")
	}
	return nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return translate(mongo.ErrNoDocuments, "delete user")
	}
	return nil
}
