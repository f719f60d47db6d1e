package internal

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errEmptyCart          = status.Error(codes.InvalidArgument, "no items provided")
	errNoRestaurantID     = status.Error(codes.InvalidArgument, "each item must include restaurantId")
	errMultipleRestaurant = status.Error(codes.InvalidArgument, "your cart contains items from multiple restaurants, "+
		"please clear the cart and add items from one restaurant only")
	errInvalidPaymentMethod = status.Error(codes.InvalidArgument, "select a valid payment method")
	errNoCardDetails        = status.Error(codes.InvalidArgument, "provide a savedCardId or full card details")
	errNoOrderNo            = status.Error(codes.InvalidArgument, "orderNo must be provided")
	errOrderCancelled       = status.Error(codes.InvalidArgument, "order is cancelled")
	errOrderPaid            = status.Error(codes.InvalidArgument, "order already paid")
	errOrderFulfilled       = status.Error(codes.FailedPrecondition, "order already fulfilled")
	errSavedCardNotCard     = status.Error(codes.InvalidArgument, "only CARD is supported here")

	errRestaurantNotFound = status.Error(codes.NotFound, "restaurant not found")
	errOrderNotFound      = status.Error(codes.NotFound, "order not found")
	errSavedCardNotFound  = status.Error(codes.NotFound, "saved card not found")
	errMenuItemNotFound   = status.Error(codes.NotFound, "menu item not found")

	errAlreadyCancelled = status.Error(codes.AlreadyExists, "order already cancelled")
	errMenuItemExists   = status.Error(codes.AlreadyExists, "menu item with same id exists")
	errEmailExists      = status.Error(codes.AlreadyExists, "email already registered")
	errOrderNoCollision = status.Error(codes.AlreadyExists, "duplicate order number")

	errForbidden    = status.Error(codes.PermissionDenied, "forbidden")
	errCrossCountry = status.Error(codes.PermissionDenied, "forbidden (cross-country)")
	errNoCheckout   = status.Error(codes.PermissionDenied, "only admin or manager can check out")

	errNoToken            = status.Error(codes.Unauthenticated, "missing token")
	errInvalidToken       = status.Error(codes.Unauthenticated, "invalid token")
	errInvalidCredentials = status.Error(codes.Unauthenticated, "invalid credentials")

	errInternal = status.Error(codes.Internal, "internal server error")
)

// Storage level errors. Services translate them into status errors.
var (
	errDuplicateKey = errors.New("duplicate key")
	errNotMatched   = errors.New("no document matched")
)
