package internal

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type OrderStorage interface {

	// Create inserts a new order. The order number is unique, a clash
	// returns errDuplicateKey.
	Create(ctx context.Context, order *dbOrder) error

	// GetOrder returns mongo.ErrNoDocuments when orderNo does not exist.
	GetOrder(ctx context.Context, orderNo string) (*dbOrder, error)

	// ListOrders returns the orders of userID, newest first.
	ListOrders(ctx context.Context, userID string) ([]*dbOrder, error)

	// UpdateStatus sets the status of an order whose current status is one of from.
	// It returns errNotMatched when no such order exists.
	UpdateStatus(ctx context.Context, orderNo string, from []OrderStatus, to OrderStatus) (*dbOrder, error)

	// UpdatePayment applies a payment change to an order matching filter
	// in a single document update. It returns errNotMatched when nothing matched.
	UpdatePayment(ctx context.Context, filter *paymentFilter, update *paymentUpdate) (*dbOrder, error)
}

// paymentFilter narrows a payment update to orders still eligible for it.
type paymentFilter struct {
	OrderNo string
	// UserID limits the update to the owner when not empty.
	UserID string
	// Unpaid excludes orders already paid.
	Unpaid bool
}

type paymentUpdate struct {
	Method PaymentOption
	// Status nil leaves the payment status, txnId and paidAt untouched.
	Status *PaymentStatus
	TxnID  string
	PaidAt *time.Time
}

type orderStorage struct {
	coll *mongo.Collection
}

func NewOrderStorage(db *mongo.Database) OrderStorage {
	return &orderStorage{coll: db.Collection("orders")}
}

func (s *orderStorage) Create(ctx context.Context, order *dbOrder) error {

	res, err := s.coll.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateKey
		}
		return err
	}

	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (s *orderStorage) GetOrder(ctx context.Context, orderNo string) (*dbOrder, error) {

	var order dbOrder
	if err := s.coll.FindOne(ctx, bson.M{"orderNo": orderNo}).Decode(&order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *orderStorage) ListOrders(ctx context.Context, userID string) ([]*dbOrder, error) {

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}

	orders := []*dbOrder{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *orderStorage) UpdateStatus(ctx context.Context, orderNo string, from []OrderStatus, to OrderStatus) (*dbOrder, error) {

	filter := bson.M{
		"orderNo": orderNo,
		"status":  bson.M{"$in": from},
	}
	update := bson.M{"$set": bson.M{
		"status":    to,
		"updatedAt": time.Now().UTC(),
	}}

	return s.findOneAndUpdate(ctx, filter, update)
}

func (s *orderStorage) UpdatePayment(ctx context.Context, f *paymentFilter, u *paymentUpdate) (*dbOrder, error) {

	filter := bson.M{
		"orderNo": f.OrderNo,
		"status":  bson.M{"$ne": OrderStatusCancelled},
	}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.Unpaid {
		filter["paymentStatus"] = bson.M{"$ne": PaymentStatusPaid}
	}

	set := bson.M{
		"paymentMethod": u.Method,
		"updatedAt":     time.Now().UTC(),
	}
	if u.Status != nil {
		set["paymentStatus"] = *u.Status
		set["txnId"] = u.TxnID
		set["paidAt"] = u.PaidAt
	}

	return s.findOneAndUpdate(ctx, filter, bson.M{"$set": set})
}

func (s *orderStorage) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*dbOrder, error) {

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order dbOrder
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errNotMatched
		}
		return nil, err
	}
	return &order, nil
}
