package internal

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PaymentMethodStorage interface {
	// ListMethods returns methods owned by ownerID, newest first. An empty
	// methodType lists every type.
	ListMethods(ctx context.Context, ownerID string, methodType MethodType) ([]*dbPaymentMethod, error)

	// GetMethod returns mongo.ErrNoDocuments unless id exists and is owned by ownerID.
	GetMethod(ctx context.Context, id, ownerID string) (*dbPaymentMethod, error)

	CreateMethod(ctx context.Context, method *dbPaymentMethod) error
}

type paymentMethodStorage struct {
	coll *mongo.Collection
}

func NewPaymentMethodStorage(db *mongo.Database) PaymentMethodStorage {
	return &paymentMethodStorage{coll: db.Collection("paymentmethods")}
}

func (s *paymentMethodStorage) ListMethods(ctx context.Context, ownerID string, methodType MethodType) ([]*dbPaymentMethod, error) {

	filter := bson.M{"createdBy": ownerID}
	if methodType != "" {
		filter["type"] = methodType
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	methods := []*dbPaymentMethod{}
	if err := cur.All(ctx, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (s *paymentMethodStorage) GetMethod(ctx context.Context, id, ownerID string) (*dbPaymentMethod, error) {

	var method dbPaymentMethod
	filter := bson.M{"_id": id, "createdBy": ownerID}
	if err := s.coll.FindOne(ctx, filter).Decode(&method); err != nil {
		return nil, err
	}
	return &method, nil
}

func (s *paymentMethodStorage) CreateMethod(ctx context.Context, method *dbPaymentMethod) error {
	_, err := s.coll.InsertOne(ctx, method)
	return err
}
