package internal

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type RestaurantStorage interface {
	// GetRestaurant returns mongo.ErrNoDocuments when id does not exist.
	GetRestaurant(ctx context.Context, id string) (*dbRestaurant, error)

	// ListRestaurants lists every restaurant when country is nil.
	ListRestaurants(ctx context.Context, country *Country) ([]*dbRestaurant, error)

	SaveRestaurant(ctx context.Context, restaurant *dbRestaurant) error

	// AddMenuItem appends item unless an item with the same id exists,
	// in which case it returns errDuplicateKey.
	AddMenuItem(ctx context.Context, restaurantID string, item *dbMenuItem) (*dbRestaurant, error)

	// UpdateMenuItem replaces the fields of an existing item. It returns
	// errNotMatched when the item does not exist.
	UpdateMenuItem(ctx context.Context, restaurantID string, item *dbMenuItem) (*dbRestaurant, error)

	DeleteMenuItem(ctx context.Context, restaurantID, itemID string) (*dbRestaurant, error)

	// DeleteRestaurant returns mongo.ErrNoDocuments when id does not exist.
	DeleteRestaurant(ctx context.Context, id string) error
}

type restaurantStorage struct {
	coll *mongo.Collection
}

func NewRestaurantStorage(db *mongo.Database) RestaurantStorage {
	return &restaurantStorage{coll: db.Collection("restaurants")}
}

func (s *restaurantStorage) GetRestaurant(ctx context.Context, id string) (*dbRestaurant, error) {

	var restaurant dbRestaurant
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&restaurant); err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (s *restaurantStorage) ListRestaurants(ctx context.Context, country *Country) ([]*dbRestaurant, error) {

	filter := bson.M{}
	if country != nil {
		filter["country"] = *country
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	restaurants := []*dbRestaurant{}
	if err := cur.All(ctx, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (s *restaurantStorage) SaveRestaurant(ctx context.Context, restaurant *dbRestaurant) error {
	_, err := s.coll.InsertOne(ctx, restaurant)
	return err
}

func (s *restaurantStorage) AddMenuItem(ctx context.Context, restaurantID string, item *dbMenuItem) (*dbRestaurant, error) {

	filter := bson.M{
		"_id":     restaurantID,
		"menu.id": bson.M{"$ne": item.ItemID},
	}
	update := bson.M{"$push": bson.M{"menu": item}}

	restaurant, err := s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, errNotMatched) {
		// either the restaurant is gone or the item id is taken
		if _, getErr := s.GetRestaurant(ctx, restaurantID); getErr != nil {
			return nil, getErr
		}
		return nil, errDuplicateKey
	}
	return restaurant, err
}

func (s *restaurantStorage) UpdateMenuItem(ctx context.Context, restaurantID string, item *dbMenuItem) (*dbRestaurant, error) {

	filter := bson.M{"_id": restaurantID, "menu.id": item.ItemID}
	update := bson.M{"$set": bson.M{"menu.$": item}}

	return s.findOneAndUpdate(ctx, filter, update)
}

func (s *restaurantStorage) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) (*dbRestaurant, error) {

	filter := bson.M{"_id": restaurantID}
	update := bson.M{"$pull": bson.M{"menu": bson.M{"id": itemID}}}

	restaurant, err := s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, errNotMatched) {
		return nil, mongo.ErrNoDocuments
	}
	return restaurant, err
}

func (s *restaurantStorage) DeleteRestaurant(ctx context.Context, id string) error {

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *restaurantStorage) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*dbRestaurant, error) {

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var restaurant dbRestaurant
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&restaurant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errNotMatched
		}
		return nil, err
	}
	return &restaurant, nil
}
