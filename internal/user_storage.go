package internal

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type UserStorage interface {
	User(ctx context.Context, userID string) (*dbUser, error)
	UserByEmail(ctx context.Context, email string) (*dbUser, error)

	// Create inserts a user. The email is unique, a clash returns errDuplicateKey.
	Create(ctx context.Context, user *dbUser) error
}

type userStorage struct {
	coll *mongo.Collection
}

func NewUserStorage(db *mongo.Database) UserStorage {
	return &userStorage{coll: db.Collection("users")}
}

func (s *userStorage) User(ctx context.Context, userID string) (*dbUser, error) {

	var user dbUser
	if err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userStorage) UserByEmail(ctx context.Context, email string) (*dbUser, error) {

	var user dbUser
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userStorage) Create(ctx context.Context, user *dbUser) error {

	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateKey
		}
		return err
	}
	return nil
}
