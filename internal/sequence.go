package internal

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// OrderSequenceKey is the counter used to mint order numbers.
const OrderSequenceKey = "order"

type Sequencer interface {
	// NextValue atomically increments the named counter and returns the new
	// value. An unseen key starts at 1.
	NextValue(ctx context.Context, key string) (int64, error)
}

type counterStorage struct {
	coll *mongo.Collection
}

func NewCounterStorage(db *mongo.Database) Sequencer {
	return &counterStorage{coll: db.Collection("counters")}
}

func (s *counterStorage) NextValue(ctx context.Context, key string) (int64, error) {

	filter := bson.M{"_id": key}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter dbCounter
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if mongo.IsDuplicateKeyError(err) {
		// two first-use upserts raced on the same key, the document
		// exists now so the second attempt is a plain increment.
		err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	}
	if err != nil {
		return 0, err
	}

	return counter.Seq, nil
}

// formatOrderNo is display only, nothing parses it back.
func formatOrderNo(prefix string, seq int64) string {
	return fmt.Sprintf("%s%d", prefix, seq)
}
