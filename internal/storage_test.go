package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// testDatabase connects to MONGO_TEST_URI and returns a throwaway database.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("foodapp_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	for coll, key := range map[string]string{"orders": "orderNo", "cancelledorders": "orderNo"} {
		_, err := db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		require.NoError(t, err)
	}
	return db
}

func TestCounterStorage_Concurrent(t *testing.T) {
	db := testDatabase(t)
	seq := NewCounterStorage(db)
	ctx := context.Background()

	const n = 50
	values := make([]int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := seq.NextValue(ctx, OrderSequenceKey)
			assert.NoError(t, err)
			values[i] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v)
	}
}

func TestOrderStorage_Lifecycle(t *testing.T) {
	db := testDatabase(t)
	orders := NewOrderStorage(db)
	ctx := context.Background()

	order := placedOrder("FOODAPP-1", testMemberAmerica.ID, CountryAmerica)
	require.NoError(t, orders.Create(ctx, order))
	assert.ErrorIs(t, orders.Create(ctx, order), errDuplicateKey)

	got, err := orders.GetOrder(ctx, "FOODAPP-1")
	require.NoError(t, err)
	assert.Equal(t, "9", fromDecimal128(got.Total).String())

	_, err = orders.GetOrder(ctx, "FOODAPP-404")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	paid := PaymentStatusPaid
	now := time.Now().UTC().Truncate(time.Millisecond)
	updated, err := orders.UpdatePayment(ctx,
		&paymentFilter{OrderNo: "FOODAPP-1", UserID: testMemberAmerica.ID, Unpaid: true},
		&paymentUpdate{Method: PaymentCard, Status: &paid, TxnID: "CARD-1", PaidAt: &now})
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, updated.PaymentStatus)

	// paid orders do not match an unpaid filter
	_, err = orders.UpdatePayment(ctx,
		&paymentFilter{OrderNo: "FOODAPP-1", Unpaid: true},
		&paymentUpdate{Method: PaymentCard, Status: &paid, TxnID: "CARD-2", PaidAt: &now})
	assert.ErrorIs(t, err, errNotMatched)

	updated, err = orders.UpdateStatus(ctx, "FOODAPP-1", []OrderStatus{OrderStatusPlaced}, OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, updated.Status)

	_, err = orders.UpdateStatus(ctx, "FOODAPP-1", []OrderStatus{OrderStatusPlaced}, OrderStatusFulfilled)
	assert.ErrorIs(t, err, errNotMatched)

	list, err := orders.ListOrders(ctx, testMemberAmerica.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCancelledOrderStorage_ConcurrentArchive(t *testing.T) {
	db := testDatabase(t)
	archive := NewCancelledOrderStorage(db)
	ctx := context.Background()

	order := placedOrder("FOODAPP-7", testMemberAmerica.ID, CountryAmerica)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := archive.Archive(ctx, order, &cancelMeta{
				StatusAtCancel: OrderStatusPlaced,
				CancelledAt:    time.Now().UTC(),
				CancelledBy:    fmt.Sprintf("u-%d", i),
			})
			switch {
			case err == nil:
				mu.Lock()
				created++
				mu.Unlock()
			case !errors.Is(err, errDuplicateKey):
				t.Errorf("archive: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)

	count, err := db.Collection("cancelledorders").CountDocuments(ctx, bson.M{"orderNo": "FOODAPP-7"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := archive.GetCancelled(ctx, "FOODAPP-7")
	require.NoError(t, err)
	assert.Equal(t, testMemberAmerica.ID, got.UserID)

	scope := CountryIndia
	list, err := archive.ListCancelled(ctx, &scope)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = archive.ListCancelled(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCancelledOrderStorage_ArchiveOnce(t *testing.T) {
	db := testDatabase(t)
	archive := NewCancelledOrderStorage(db)
	ctx := context.Background()

	order := placedOrder("FOODAPP-8", testMemberAmerica.ID, CountryAmerica)

	first, err := archive.Archive(ctx, order, &cancelMeta{CancelledBy: "u-1", Reason: "first"})
	require.NoError(t, err)
	assert.False(t, first.ID.IsZero())

	_, err = archive.Archive(ctx, order, &cancelMeta{CancelledBy: "u-2", Reason: "second"})
	assert.ErrorIs(t, err, errDuplicateKey)

	got, err := archive.GetCancelled(ctx, "FOODAPP-8")
	require.NoError(t, err)
	assert.Equal(t, "first", got.CancelReason)
	assert.Equal(t, "u-1", got.CancelledBy)

	require.NoError(t, archive.Unarchive(ctx, "FOODAPP-8"))
	_, err = archive.GetCancelled(ctx, "FOODAPP-8")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}
