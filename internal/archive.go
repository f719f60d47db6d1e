package internal

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type CancelledOrderStorage interface {

	// Archive inserts the cancellation record keyed by orderNo. Only the
	// first call creates it. Every later or racing call gets
	// errDuplicateKey and the existing record is left untouched.
	Archive(ctx context.Context, snapshot *dbOrder, meta *cancelMeta) (*dbCancelledOrder, error)

	// Unarchive removes the record of an order that turned out not to be
	// cancellable after it was archived.
	Unarchive(ctx context.Context, orderNo string) error

	GetCancelled(ctx context.Context, orderNo string) (*dbCancelledOrder, error)

	// ListCancelled returns archived cancellations newest first. A nil
	// country lists every country.
	ListCancelled(ctx context.Context, country *Country) ([]*dbCancelledOrder, error)
}

type cancelMeta struct {
	StatusAtCancel OrderStatus
	CancelledAt    time.Time
	CancelledBy    string
	Reason         string
}

type cancelledOrderStorage struct {
	coll *mongo.Collection
}

func NewCancelledOrderStorage(db *mongo.Database) CancelledOrderStorage {
	return &cancelledOrderStorage{coll: db.Collection("cancelledorders")}
}

func (s *cancelledOrderStorage) Archive(ctx context.Context, o *dbOrder, meta *cancelMeta) (*dbCancelledOrder, error) {

	archived := &dbCancelledOrder{
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		Country:        o.Country,
		Items:          o.Items,
		Total:          o.Total,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		TxnID:          o.TxnID,
		PaidAt:         o.PaidAt,
		StatusAtCancel: meta.StatusAtCancel,
		CancelledAt:    meta.CancelledAt,
		CancelledBy:    meta.CancelledBy,
		CancelReason:   meta.Reason,
	}

	filter := bson.M{"orderNo": o.OrderNo}
	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":         archived.UserID,
			"country":        archived.Country,
			"items":          archived.Items,
			"total":          archived.Total,
			"paymentMethod":  archived.PaymentMethod,
			"paymentStatus":  archived.PaymentStatus,
			"txnId":          archived.TxnID,
			"paidAt":         archived.PaidAt,
			"statusAtCancel": archived.StatusAtCancel,
			"cancelledAt":    archived.CancelledAt,
			"cancelledBy":    archived.CancelledBy,
			"cancelReason":   archived.CancelReason,
		},
	}
	opts := options.UpdateOne().SetUpsert(true)

	res, err := s.coll.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errDuplicateKey
		}
		return nil, err
	}

	// matched an existing record, someone else archived it first
	if res.UpsertedCount == 0 {
		return nil, errDuplicateKey
	}

	if id, ok := res.UpsertedID.(bson.ObjectID); ok {
		archived.ID = id
	}
	return archived, nil
}

func (s *cancelledOrderStorage) Unarchive(ctx context.Context, orderNo string) error {

	_, err := s.coll.DeleteOne(ctx, bson.M{"orderNo": orderNo})
	return err
}

func (s *cancelledOrderStorage) GetCancelled(ctx context.Context, orderNo string) (*dbCancelledOrder, error) {

	var archived dbCancelledOrder
	if err := s.coll.FindOne(ctx, bson.M{"orderNo": orderNo}).Decode(&archived); err != nil {
		return nil, err
	}
	return &archived, nil
}

func (s *cancelledOrderStorage) ListCancelled(ctx context.Context, country *Country) ([]*dbCancelledOrder, error) {

	filter := bson.M{}
	if country != nil {
		filter["country"] = *country
	}

	opts := options.Find().SetSort(bson.D{{Key: "cancelledAt", Value: -1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	archived := []*dbCancelledOrder{}
	if err := cur.All(ctx, &archived); err != nil {
		return nil, err
	}
	return archived, nil
}
