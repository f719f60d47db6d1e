package internal

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func indiaRestaurant() *dbRestaurant {
	return &dbRestaurant{
		ID:         "r-in",
		Name:       "Dosa Corner",
		Country:    CountryIndia,
		Categories: []string{"South Indian"},
		Menu: []*dbMenuItem{
			{ItemID: "dosa", Name: "Masala Dosa", Price: dec128("120")},
		},
	}
}

func TestListRestaurants(t *testing.T) {
	ctx := context.Background()

	t.Run("admin lists all", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("ListRestaurants", ctx, mock.MatchedBy(func(c *Country) bool { return c == nil })).
			Return([]*dbRestaurant{americaRestaurant(), indiaRestaurant()}, nil)

		restaurants, err := s.ListRestaurants(ctx, testAdmin)
		require.NoError(t, err)
		assert.Len(t, restaurants, 2)
	})

	t.Run("member lists own country", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("ListRestaurants", ctx, mock.MatchedBy(func(c *Country) bool {
			return c != nil && *c == CountryAmerica
		})).Return([]*dbRestaurant{americaRestaurant()}, nil)

		restaurants, err := s.ListRestaurants(ctx, testMemberAmerica)
		require.NoError(t, err)
		require.Len(t, restaurants, 1)
		assert.Equal(t, "Burger Barn", restaurants[0].Name)
		assert.Equal(t, []string{}, restaurants[0].Categories)
	})
}

func TestGetRestaurant(t *testing.T) {
	ctx := context.Background()

	storage := new(MockRestaurantStorage)
	s := NewRestaurantService(storage)
	storage.On("GetRestaurant", ctx, "r-in").Return(indiaRestaurant(), nil)
	storage.On("GetRestaurant", ctx, "r-none").Return(nil, mongo.ErrNoDocuments)

	r, err := s.GetRestaurant(ctx, testManagerIndia, "r-in")
	require.NoError(t, err)
	require.Len(t, r.Menu, 1)
	assert.True(t, decimal.NewFromInt(120).Equal(r.Menu[0].Price))

	_, err = s.GetRestaurant(ctx, testMemberAmerica, "r-in")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.GetRestaurant(ctx, testAdmin, "r-none")
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestCreateRestaurant(t *testing.T) {
	SetupValidator()
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)

		storage.On("SaveRestaurant", ctx, mock.MatchedBy(func(r *dbRestaurant) bool {
			return r.ID != "" && r.Name == "Taco Town" && len(r.Menu) == 2 && r.Menu[0].ItemID == "taco"
		})).Return(nil)

		r, err := s.CreateRestaurant(ctx, testAdmin, &CreateRestaurantRequest{
			Name:       " Taco Town ",
			Country:    CountryAmerica,
			Categories: []string{" Mexican", "", "Mexican", "Street food "},
			Menu: []*MenuItemRequest{
				{ID: "taco", Name: "Taco", Price: decimal.RequireFromString("4.50")},
				{Name: "Nachos", Price: decimal.RequireFromString("6")},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "Taco Town", r.Name)
		assert.Equal(t, []string{"Mexican", "Street food"}, r.Categories)
		assert.NotEmpty(t, r.Menu[1].ID)
		assert.Equal(t, "4.50", r.Menu[0].Price.StringFixed(2))
		storage.AssertExpectations(t)
	})

	t.Run("not admin", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)

		_, err := s.CreateRestaurant(ctx, testManagerAmerica, &CreateRestaurantRequest{Name: "x", Country: CountryAmerica})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("duplicate item id", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)

		_, err := s.CreateRestaurant(ctx, testAdmin, &CreateRestaurantRequest{
			Name:    "Taco Town",
			Country: CountryAmerica,
			Menu: []*MenuItemRequest{
				{ID: "taco", Name: "Taco"},
				{ID: "taco", Name: "Taco again"},
			},
		})
		assert.Equal(t, codes.AlreadyExists, status.Code(err))
		storage.AssertNotCalled(t, "SaveRestaurant", mock.Anything, mock.Anything)
	})

	t.Run("invalid country", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)

		_, err := s.CreateRestaurant(ctx, testAdmin, &CreateRestaurantRequest{Name: "x", Country: "Mars"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestMenuItems(t *testing.T) {
	SetupValidator()
	ctx := context.Background()

	t.Run("member adds to own country", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("GetRestaurant", ctx, "r-us").Return(americaRestaurant(), nil)
		storage.On("AddMenuItem", ctx, "r-us", mock.MatchedBy(func(m *dbMenuItem) bool {
			return m.ItemID == "wings" && m.Name == "Wings"
		})).Return(americaRestaurant(), nil)

		_, err := s.AddMenuItem(ctx, testMemberAmerica, "r-us", &MenuItemRequest{
			ID: "wings", Name: "Wings", Price: decimal.RequireFromString("7.25"),
		})
		require.NoError(t, err)
		storage.AssertExpectations(t)
	})

	t.Run("member cross country", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("GetRestaurant", ctx, "r-in").Return(indiaRestaurant(), nil)

		_, err := s.AddMenuItem(ctx, testMemberAmerica, "r-in", &MenuItemRequest{Name: "Idli"})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
		storage.AssertNotCalled(t, "AddMenuItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate item", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("GetRestaurant", ctx, "r-in").Return(indiaRestaurant(), nil)
		storage.On("AddMenuItem", ctx, "r-in", mock.Anything).Return(nil, errDuplicateKey)

		_, err := s.AddMenuItem(ctx, testManagerIndia, "r-in", &MenuItemRequest{ID: "dosa", Name: "Dosa"})
		assert.Equal(t, codes.AlreadyExists, status.Code(err))
	})

	t.Run("negative price", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("GetRestaurant", ctx, "r-in").Return(indiaRestaurant(), nil)

		_, err := s.AddMenuItem(ctx, testManagerIndia, "r-in", &MenuItemRequest{
			Name: "Dosa", Price: decimal.RequireFromString("-0.01"),
		})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("update missing item", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("GetRestaurant", ctx, "r-in").Return(indiaRestaurant(), nil)
		storage.On("UpdateMenuItem", ctx, "r-in", mock.MatchedBy(func(m *dbMenuItem) bool {
			return m.ItemID == "vada"
		})).Return(nil, errNotMatched)

		_, err := s.UpdateMenuItem(ctx, testAdmin, "r-in", "vada", &MenuItemRequest{Name: "Vada"})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("delete", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("GetRestaurant", ctx, "r-in").Return(indiaRestaurant(), nil)

		emptied := indiaRestaurant()
		emptied.Menu = nil
		storage.On("DeleteMenuItem", ctx, "r-in", "dosa").Return(emptied, nil)

		r, err := s.DeleteMenuItem(ctx, testManagerIndia, "r-in", "dosa")
		require.NoError(t, err)
		assert.Empty(t, r.Menu)
	})
}

func TestDeleteRestaurant(t *testing.T) {
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("DeleteRestaurant", ctx, "r-in").Return(nil)

		assert.NoError(t, s.DeleteRestaurant(ctx, testAdmin, "r-in"))
		storage.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)
		storage.On("DeleteRestaurant", ctx, "r-none").Return(mongo.ErrNoDocuments)

		err := s.DeleteRestaurant(ctx, testAdmin, "r-none")
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("manager forbidden", func(t *testing.T) {
		storage := new(MockRestaurantStorage)
		s := NewRestaurantService(storage)

		err := s.DeleteRestaurant(ctx, testManagerIndia, "r-in")
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
		storage.AssertNotCalled(t, "DeleteRestaurant", mock.Anything, mock.Anything)
	})
}
