package internal

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

type MockOrderStorage struct {
	mock.Mock
}

func (m *MockOrderStorage) Create(ctx context.Context, order *dbOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderStorage) GetOrder(ctx context.Context, orderNo string) (*dbOrder, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbOrder), args.Error(1)
}

func (m *MockOrderStorage) ListOrders(ctx context.Context, userID string) ([]*dbOrder, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbOrder), args.Error(1)
}

func (m *MockOrderStorage) UpdateStatus(ctx context.Context, orderNo string, from []OrderStatus, to OrderStatus) (*dbOrder, error) {
	args := m.Called(ctx, orderNo, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbOrder), args.Error(1)
}

func (m *MockOrderStorage) UpdatePayment(ctx context.Context, filter *paymentFilter, update *paymentUpdate) (*dbOrder, error) {
	args := m.Called(ctx, filter, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbOrder), args.Error(1)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Archive(ctx context.Context, snapshot *dbOrder, meta *cancelMeta) (*dbCancelledOrder, error) {
	args := m.Called(ctx, snapshot, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbCancelledOrder), args.Error(1)
}

func (m *MockArchive) Unarchive(ctx context.Context, orderNo string) error {
	args := m.Called(ctx, orderNo)
	return args.Error(0)
}

func (m *MockArchive) GetCancelled(ctx context.Context, orderNo string) (*dbCancelledOrder, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbCancelledOrder), args.Error(1)
}

func (m *MockArchive) ListCancelled(ctx context.Context, country *Country) ([]*dbCancelledOrder, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbCancelledOrder), args.Error(1)
}

type MockSequencer struct {
	mock.Mock
}

func (m *MockSequencer) NextValue(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

type MockRestaurantStorage struct {
	mock.Mock
}

func (m *MockRestaurantStorage) GetRestaurant(ctx context.Context, id string) (*dbRestaurant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbRestaurant), args.Error(1)
}

func (m *MockRestaurantStorage) ListRestaurants(ctx context.Context, country *Country) ([]*dbRestaurant, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbRestaurant), args.Error(1)
}

func (m *MockRestaurantStorage) SaveRestaurant(ctx context.Context, restaurant *dbRestaurant) error {
	args := m.Called(ctx, restaurant)
	return args.Error(0)
}

func (m *MockRestaurantStorage) AddMenuItem(ctx context.Context, restaurantID string, item *dbMenuItem) (*dbRestaurant, error) {
	args := m.Called(ctx, restaurantID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbRestaurant), args.Error(1)
}

func (m *MockRestaurantStorage) UpdateMenuItem(ctx context.Context, restaurantID string, item *dbMenuItem) (*dbRestaurant, error) {
	args := m.Called(ctx, restaurantID, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbRestaurant), args.Error(1)
}

func (m *MockRestaurantStorage) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) (*dbRestaurant, error) {
	args := m.Called(ctx, restaurantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbRestaurant), args.Error(1)
}

type MockPaymentMethodStorage struct {
	mock.Mock
}

func (m *MockPaymentMethodStorage) ListMethods(ctx context.Context, ownerID string, methodType MethodType) ([]*dbPaymentMethod, error) {
	args := m.Called(ctx, ownerID, methodType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbPaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodStorage) GetMethod(ctx context.Context, id, ownerID string) (*dbPaymentMethod, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbPaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodStorage) CreateMethod(ctx context.Context, method *dbPaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

func (m *MockRestaurantStorage) DeleteRestaurant(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserStorage struct {
	mock.Mock
}

func (m *MockUserStorage) User(ctx context.Context, userID string) (*dbUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbUser), args.Error(1)
}

func (m *MockUserStorage) UserByEmail(ctx context.Context, email string) (*dbUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbUser), args.Error(1)
}

func (m *MockUserStorage) Create(ctx context.Context, user *dbUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockRabbitMQ struct {
	mock.Mock
}

func (m *MockRabbitMQ) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	args := m.Called(ctx, routingKey, msg)
	return args.Error(0)
}

func (m *MockRabbitMQ) Subscribe(ctx context.Context, queue, key string) (<-chan amqp.Delivery, error) {
	args := m.Called(ctx, queue, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan amqp.Delivery), args.Error(1)
}
