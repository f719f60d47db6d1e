package internal

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type CreateRestaurantRequest struct {
	Name       string             `json:"name" validate:"required,max=128"`
	Cuisine    string             `json:"cuisine"`
	City       string             `json:"city"`
	Country    Country            `json:"country" validate:"required,vcountry"`
	CoverImage string             `json:"coverImage"`
	Categories []string           `json:"categories"`
	Menu       []*MenuItemRequest `json:"menu" validate:"dive,required"`
}

type MenuItemRequest struct {
	// ID is assigned by the server when empty.
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required,max=128"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Image       string          `json:"image"`
}

type RestaurantService struct {
	restaurants RestaurantStorage
}

func NewRestaurantService(restaurants RestaurantStorage) *RestaurantService {
	return &RestaurantService{restaurants: restaurants}
}

func (x *RestaurantService) ListRestaurants(ctx context.Context, actor Actor) ([]*Restaurant, error) {

	dbRestaurants, err := x.restaurants.ListRestaurants(ctx, RestaurantScope(actor))
	if err != nil {
		slog.Error("list restaurants", "err", err)
		return nil, errInternal
	}

	restaurants := make([]*Restaurant, 0, len(dbRestaurants))
	for _, r := range dbRestaurants {
		restaurants = append(restaurants, r.IntoRestaurant())
	}
	return restaurants, nil
}

func (x *RestaurantService) GetRestaurant(ctx context.Context, actor Actor, id string) (*Restaurant, error) {

	restaurant, err := x.getRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}

	if CanViewRestaurant(actor, restaurant.Country) != Allow {
		return nil, errRestaurantNotFound
	}

	return restaurant.IntoRestaurant(), nil
}

func (x *RestaurantService) CreateRestaurant(ctx context.Context, actor Actor, in *CreateRestaurantRequest) (*Restaurant, error) {

	if CanCreateRestaurant(actor) != Allow {
		return nil, errForbidden
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	restaurant := &dbRestaurant{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Cuisine:    strings.TrimSpace(in.Cuisine),
		City:       strings.TrimSpace(in.City),
		Country:    in.Country,
		CoverImage: in.CoverImage,
		Categories: normalizeCategories(in.Categories),
		Menu:       []*dbMenuItem{},
		CreateTime: timeNow(),
	}

	seen := make(map[string]struct{})
	for _, m := range in.Menu {
		item := newMenuItem(m)
		if _, ok := seen[item.ItemID]; ok {
			return nil, errMenuItemExists
		}
		seen[item.ItemID] = struct{}{}
		restaurant.Menu = append(restaurant.Menu, item)
	}

	if err := x.restaurants.SaveRestaurant(ctx, restaurant); err != nil {
		slog.Error("save restaurant", "err", err)
		return nil, errInternal
	}

	return restaurant.IntoRestaurant(), nil
}

func (x *RestaurantService) AddMenuItem(ctx context.Context, actor Actor, restaurantID string, in *MenuItemRequest) (*Restaurant, error) {

	if err := x.authorizeMenuEdit(ctx, actor, restaurantID); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	restaurant, err := x.restaurants.AddMenuItem(ctx, restaurantID, newMenuItem(in))
	if err != nil {
		switch {
		case errors.Is(err, errDuplicateKey):
			return nil, errMenuItemExists
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, errRestaurantNotFound
		}
		slog.Error("add menu item", "err", err)
		return nil, errInternal
	}

	return restaurant.IntoRestaurant(), nil
}

func (x *RestaurantService) UpdateMenuItem(ctx context.Context, actor Actor, restaurantID, itemID string, in *MenuItemRequest) (*Restaurant, error) {

	if err := x.authorizeMenuEdit(ctx, actor, restaurantID); err != nil {
		return nil, err
	}

	in.ID = itemID
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	restaurant, err := x.restaurants.UpdateMenuItem(ctx, restaurantID, newMenuItem(in))
	if err != nil {
		if errors.Is(err, errNotMatched) {
			return nil, errMenuItemNotFound
		}
		slog.Error("update menu item", "err", err)
		return nil, errInternal
	}

	return restaurant.IntoRestaurant(), nil
}

func (x *RestaurantService) DeleteMenuItem(ctx context.Context, actor Actor, restaurantID, itemID string) (*Restaurant, error) {

	if err := x.authorizeMenuEdit(ctx, actor, restaurantID); err != nil {
		return nil, err
	}

	restaurant, err := x.restaurants.DeleteMenuItem(ctx, restaurantID, itemID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errRestaurantNotFound
		}
		slog.Error("delete menu item", "err", err)
		return nil, errInternal
	}

	return restaurant.IntoRestaurant(), nil
}

func (x *RestaurantService) DeleteRestaurant(ctx context.Context, actor Actor, id string) error {

	if CanDeleteRestaurant(actor) != Allow {
		return errForbidden
	}
	if strings.TrimSpace(id) == "" {
		return status.Error(codes.InvalidArgument, "restaurant id must be provided")
	}

	if err := x.restaurants.DeleteRestaurant(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errRestaurantNotFound
		}
		slog.Error("delete restaurant", "err", err)
		return errInternal
	}

	slog.Info("restaurant deleted", "restaurantId", id, "by", actor.ID)
	return nil
}

func (x *RestaurantService) authorizeMenuEdit(ctx context.Context, actor Actor, restaurantID string) error {

	restaurant, err := x.getRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}

	if CanEditMenu(actor, restaurant.Country) != Allow {
		return errCrossCountry
	}
	return nil
}

func (x *RestaurantService) getRestaurant(ctx context.Context, id string) (*dbRestaurant, error) {

	if strings.TrimSpace(id) == "" {
		return nil, status.Error(codes.InvalidArgument, "restaurant id must be provided")
	}

	restaurant, err := x.restaurants.GetRestaurant(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errRestaurantNotFound
		}
		slog.Error("get restaurant", "err", err)
		return nil, errInternal
	}
	return restaurant, nil
}

func newMenuItem(in *MenuItemRequest) *dbMenuItem {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return &dbMenuItem{
		ItemID:      id,
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       toDecimal128(in.Price),
		Image:       in.Image,
	}
}

// normalizeCategories trims tags and drops empty and repeated ones.
func normalizeCategories(in []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
