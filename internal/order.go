package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type CheckoutRequest struct {
	Items         []*CartItem   `json:"items"`
	PaymentMethod PaymentOption `json:"paymentMethod"`
	Card          *CardDetails  `json:"card"`
	UPI           *UPIDetails   `json:"upi"`
	SavedCardID   string        `json:"savedCardId"`
	SaveCard      bool          `json:"saveCard"`
}

// CartItem is a line of the caller's cart. Name and Price are what the
// client displayed; the order is priced from the restaurant menu.
type CartItem struct {
	RestaurantID string          `json:"restaurantId"`
	ItemID       string          `json:"itemId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Qty          int             `json:"qty"`
}

// CardDetails is a card entered at payment time. Only brand, last4 and
// exp may ever be stored.
type CardDetails struct {
	Number string `json:"number" validate:"required,vcard"`
	Exp    string `json:"exp" validate:"required"`
	CVV    string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

type UPIDetails struct {
	VPA string `json:"vpa" validate:"required,vupi"`
}

type UpdatePaymentRequest struct {
	Type    PaymentOption `json:"type"`
	Capture bool          `json:"capture"`
}

type ChargeRequest struct {
	OrderNo         string       `json:"orderNo"`
	PaymentMethodID string       `json:"paymentMethodId"`
	Card            *CardDetails `json:"card"`
	SaveCard        bool         `json:"saveCard"`
}

type CancelResult struct {
	Order     *Order
	Cancelled *CancelledOrder
	// Duplicate is set when a concurrent request archived the order first.
	Duplicate bool
}

type ChargeResult struct {
	Order         *Order
	TxnID         string
	SavedMethodID string
}

type OrderService struct {
	orders      OrderStorage
	archive     CancelledOrderStorage
	sequence    Sequencer
	restaurants RestaurantStorage
	methods     PaymentMethodStorage
	rabbitmq    RabbitMQ

	orderNoPrefix string
	now           func() time.Time
}

func NewOrderService(
	orders OrderStorage,
	archive CancelledOrderStorage,
	sequence Sequencer,
	restaurants RestaurantStorage,
	methods PaymentMethodStorage,
	rabbitmq RabbitMQ,
	orderNoPrefix string,
) *OrderService {
	return &OrderService{
		orders:        orders,
		archive:       archive,
		sequence:      sequence,
		restaurants:   restaurants,
		methods:       methods,
		rabbitmq:      rabbitmq,
		orderNoPrefix: orderNoPrefix,
		now:           timeNow,
	}
}

func (x *OrderService) Checkout(ctx context.Context, actor Actor, in *CheckoutRequest) (*Order, error) {

	if !MayCheckout(actor) {
		return nil, errNoCheckout
	}

	if len(in.Items) == 0 {
		return nil, errEmptyCart
	}

	restaurantIDs := make(map[string]struct{})
	for _, it := range in.Items {
		if it == nil || strings.TrimSpace(it.RestaurantID) == "" {
			return nil, errNoRestaurantID
		}
		restaurantIDs[it.RestaurantID] = struct{}{}
	}
	if len(restaurantIDs) > 1 {
		return nil, errMultipleRestaurant
	}

	restaurant, err := x.restaurants.GetRestaurant(ctx, in.Items[0].RestaurantID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errRestaurantNotFound
		}
		slog.Error("get restaurant", "err", err)
		return nil, errInternal
	}

	if CanCheckout(actor, restaurant.Country) != Allow {
		return nil, errCrossCountry
	}

	items, total, err := priceItems(restaurant, in.Items)
	if err != nil {
		return nil, err
	}

	if !in.PaymentMethod.IsValid() {
		return nil, errInvalidPaymentMethod
	}

	switch in.PaymentMethod {
	case PaymentCard:
		if _, err := x.resolveCard(ctx, actor, in.SavedCardID, in.Card, in.SaveCard); err != nil {
			return nil, err
		}
	case PaymentUPI:
		if in.UPI == nil {
			return nil, status.Error(codes.InvalidArgument, "vpa is required")
		}
		if err := ValidateStruct(in.UPI); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
	}

	paymentStatus, txnID, paidAt := x.settle(in.PaymentMethod)

	seq, err := x.sequence.NextValue(ctx, OrderSequenceKey)
	if err != nil {
		slog.Error("next sequence value", "err", err)
		return nil, errInternal
	}

	now := x.now()
	order := &dbOrder{
		OrderNo:        formatOrderNo(x.orderNoPrefix, seq),
		UserID:         actor.ID,
		RestaurantID:   restaurant.ID,
		RestaurantName: restaurant.Name,
		Country:        restaurant.Country,
		Items:          items,
		Total:          toDecimal128(total),
		Status:         OrderStatusPlaced,
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  paymentStatus,
		TxnID:          txnID,
		PaidAt:         paidAt,
		CreateTime:     now,
		UpdateTime:     now,
	}

	if err := x.orders.Create(ctx, order); err != nil {
		if errors.Is(err, errDuplicateKey) {
			return nil, errOrderNoCollision
		}
		slog.Error("create order", "err", err)
		return nil, errInternal
	}

	placed := order.IntoOrder()
	x.publish(ctx, keyOrderPlaced, placed.OrderNo, placed)

	return placed, nil
}

// priceItems freezes name and price of every cart line from the menu and
// returns the lines with their total. A quantity below one counts as one.
func priceItems(restaurant *dbRestaurant, cart []*CartItem) ([]*dbOrderItem, decimal.Decimal, error) {

	total := decimal.Zero
	items := make([]*dbOrderItem, 0, len(cart))

	for _, it := range cart {
		menuItem := restaurant.findItem(it.ItemID)
		if menuItem == nil {
			return nil, decimal.Zero, status.Errorf(codes.InvalidArgument,
				"item %q is not on the menu of %s", it.ItemID, restaurant.Name)
		}

		qty := it.Qty
		if qty < 1 {
			qty = 1
		}

		price := fromDecimal128(menuItem.Price)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))

		items = append(items, &dbOrderItem{
			RestaurantID: restaurant.ID,
			ItemID:       menuItem.ItemID,
			Name:         menuItem.Name,
			Price:        menuItem.Price,
			Qty:          qty,
		})
	}

	return items, total.Round(2), nil
}

// resolveCard accepts either a saved CARD owned by the caller or a new
// card. A new card is stored only when save is set, and then only its
// brand, last4 and expiry. It returns the id of the saved method, if any.
func (x *OrderService) resolveCard(ctx context.Context, actor Actor, savedID string, card *CardDetails, save bool) (string, error) {

	if savedID != "" {
		method, err := x.methods.GetMethod(ctx, savedID, actor.ID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return "", errSavedCardNotFound
			}
			slog.Error("get payment method", "err", err)
			return "", errInternal
		}
		if method.Type != MethodCard {
			return "", errSavedCardNotCard
		}
		return method.ID, nil
	}

	if card == nil {
		return "", errNoCardDetails
	}
	if err := ValidateStruct(card); err != nil {
		return "", status.Error(codes.InvalidArgument, err.Error())
	}

	if !save {
		return "", nil
	}

	brand := CardBrand(card.Number)
	last4 := lastFour(card.Number)
	method := &dbPaymentMethod{
		ID:        uuid.NewString(),
		Nickname:  maskedNickname(brand, last4),
		Type:      MethodCard,
		Country:   actor.Country,
		IsDefault: false,
		Details: dbPaymentDetails{
			Brand: brand,
			Last4: last4,
			Exp:   card.Exp,
		},
		CreatedBy:  actor.ID,
		CreateTime: x.now(),
	}

	if err := x.methods.CreateMethod(ctx, method); err != nil {
		slog.Error("create payment method", "err", err)
		return "", errInternal
	}

	return method.ID, nil
}

// settle is the mock payment processor. CARD and UPI always succeed.
func (x *OrderService) settle(method PaymentOption) (PaymentStatus, string, *time.Time) {
	if method == PaymentCOD {
		return PaymentStatusCOD, "", nil
	}
	now := x.now()
	return PaymentStatusPaid, fmt.Sprintf("%s-%d", method, now.UnixMilli()), &now
}

func (x *OrderService) ListMyOrders(ctx context.Context, actor Actor) ([]*Order, error) {

	dbOrders, err := x.orders.ListOrders(ctx, actor.ID)
	if err != nil {
		slog.Error("list orders", "err", err)
		return nil, errInternal
	}

	orders := make([]*Order, 0, len(dbOrders))
	for _, o := range dbOrders {
		orders = append(orders, o.IntoOrder())
	}
	return orders, nil
}

func (x *OrderService) GetOrder(ctx context.Context, actor Actor, orderNo string) (*Order, error) {

	order, err := x.getOrder(ctx, orderNo)
	if err != nil {
		return nil, err
	}

	if CanViewOrder(actor, order.UserID, order.Country) != Allow {
		return nil, errOrderNotFound
	}

	return order.IntoOrder(), nil
}

// Cancel archives the order and then flips its status to Cancelled.
// A racing cancel that lost the archive insert is reported as a duplicate
// success. If the order is fulfilled in between, the archive record is
// removed again.
func (x *OrderService) Cancel(ctx context.Context, actor Actor, orderNo, reason string) (*CancelResult, error) {

	order, err := x.getOrder(ctx, orderNo)
	if err != nil {
		return nil, err
	}

	if CanCancelOrder(actor, order.UserID, order.Country, order.Status) != Allow {
		if actor.Role == RoleManager {
			return nil, errCrossCountry
		}
		return nil, errForbidden
	}

	switch order.Status {
	case OrderStatusCancelled:
		return nil, errAlreadyCancelled
	case OrderStatusFulfilled:
		return nil, errOrderFulfilled
	}

	duplicate := false
	archived, err := x.archive.Archive(ctx, order, &cancelMeta{
		StatusAtCancel: order.Status,
		CancelledAt:    x.now(),
		CancelledBy:    actor.ID,
		Reason:         strings.TrimSpace(reason),
	})
	if errors.Is(err, errDuplicateKey) {
		duplicate = true
		archived, err = x.archive.GetCancelled(ctx, order.OrderNo)
	}
	if err != nil {
		slog.Error("archive cancelled order", "err", err)
		return nil, errInternal
	}

	updated, err := x.orders.UpdateStatus(ctx, order.OrderNo,
		[]OrderStatus{OrderStatusPlaced}, OrderStatusCancelled)
	if errors.Is(err, errNotMatched) {
		updated, err = x.orders.GetOrder(ctx, order.OrderNo)
		if err == nil && updated.Status != OrderStatusCancelled {
			slog.Warn("order left placed state during cancel",
				"orderNo", order.OrderNo,
				"status", updated.Status,
			)
			// only the request that created the record removes it
			if !duplicate {
				if err := x.archive.Unarchive(ctx, order.OrderNo); err != nil {
					slog.Error("unarchive order", "orderNo", order.OrderNo, "err", err)
					return nil, errInternal
				}
			}
			return nil, errOrderFulfilled
		}
	}
	if err != nil {
		slog.Error("update order status", "err", err)
		return nil, errInternal
	}

	res := &CancelResult{
		Order:     updated.IntoOrder(),
		Cancelled: archived.IntoCancelledOrder(),
		Duplicate: duplicate,
	}

	if !duplicate {
		x.publish(ctx, keyOrderCancelled, res.Order.OrderNo, res.Cancelled)
	}

	return res, nil
}

func (x *OrderService) ListCancelled(ctx context.Context, actor Actor) ([]*CancelledOrder, error) {

	country, decision := CancelledScope(actor)
	if decision != Allow {
		return nil, errForbidden
	}

	dbCancelled, err := x.archive.ListCancelled(ctx, country)
	if err != nil {
		slog.Error("list cancelled orders", "err", err)
		return nil, errInternal
	}

	cancelled := make([]*CancelledOrder, 0, len(dbCancelled))
	for _, c := range dbCancelled {
		cancelled = append(cancelled, c.IntoCancelledOrder())
	}
	return cancelled, nil
}

// UpdatePayment is an administrative override. Switching to COD resets a
// paid order to unpaid.
func (x *OrderService) UpdatePayment(ctx context.Context, actor Actor, orderNo string, in *UpdatePaymentRequest) (*Order, error) {

	if CanUpdatePayment(actor) != Allow {
		return nil, errForbidden
	}

	if !in.Type.IsValid() {
		return nil, errInvalidPaymentMethod
	}

	order, err := x.getOrder(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order.Status == OrderStatusCancelled {
		return nil, errOrderCancelled
	}

	update := &paymentUpdate{Method: in.Type}
	switch {
	case in.Type == PaymentCOD:
		cod := PaymentStatusCOD
		update.Status = &cod
	case in.Capture:
		paymentStatus, txnID, paidAt := x.settle(in.Type)
		update.Status = &paymentStatus
		update.TxnID = txnID
		update.PaidAt = paidAt
	}

	updated, err := x.orders.UpdatePayment(ctx, &paymentFilter{OrderNo: order.OrderNo}, update)
	if err != nil {
		if errors.Is(err, errNotMatched) {
			return nil, errOrderCancelled
		}
		slog.Error("update order payment", "err", err)
		return nil, errInternal
	}

	res := updated.IntoOrder()
	if res.PaymentStatus == PaymentStatusPaid && update.Status != nil {
		x.publish(ctx, keyOrderPaid, res.OrderNo, res)
	}

	return res, nil
}

// Charge pays an owned, unpaid order by card. The order country is not
// compared with the country of the card.
func (x *OrderService) Charge(ctx context.Context, actor Actor, in *ChargeRequest) (*ChargeResult, error) {

	order, err := x.getOrder(ctx, in.OrderNo)
	if err != nil {
		return nil, err
	}

	if CanCharge(actor, order.UserID) != Allow {
		return nil, errOrderNotFound
	}

	if order.Status == OrderStatusCancelled {
		return nil, errOrderCancelled
	}
	if order.PaymentStatus == PaymentStatusPaid {
		return nil, errOrderPaid
	}

	savedID, err := x.resolveCard(ctx, actor, in.PaymentMethodID, in.Card, in.SaveCard)
	if err != nil {
		return nil, err
	}

	paymentStatus, txnID, paidAt := x.settle(PaymentCard)
	updated, err := x.orders.UpdatePayment(ctx,
		&paymentFilter{OrderNo: order.OrderNo, UserID: actor.ID, Unpaid: true},
		&paymentUpdate{Method: PaymentCard, Status: &paymentStatus, TxnID: txnID, PaidAt: paidAt},
	)
	if err != nil {
		if errors.Is(err, errNotMatched) {
			return nil, x.explainPaymentMismatch(ctx, order.OrderNo)
		}
		slog.Error("charge order", "err", err)
		return nil, errInternal
	}

	res := updated.IntoOrder()
	x.publish(ctx, keyOrderPaid, res.OrderNo, res)

	return &ChargeResult{
		Order:         res,
		TxnID:         txnID,
		SavedMethodID: savedID,
	}, nil
}

// explainPaymentMismatch reports why a conditional payment update found
// nothing to change after the order was read.
func (x *OrderService) explainPaymentMismatch(ctx context.Context, orderNo string) error {
	order, err := x.orders.GetOrder(ctx, orderNo)
	if err != nil {
		slog.Error("get order", "err", err)
		return errInternal
	}
	if order.Status == OrderStatusCancelled {
		return errOrderCancelled
	}
	return errOrderPaid
}

// MarkFulfilled moves a Placed order to Fulfilled. Orders in any other
// state are left untouched.
func (x *OrderService) MarkFulfilled(ctx context.Context, orderNo string) error {

	if orderNo == "" {
		return errNoOrderNo
	}

	_, err := x.orders.UpdateStatus(ctx, orderNo, []OrderStatus{OrderStatusPlaced}, OrderStatusFulfilled)
	if errors.Is(err, errNotMatched) {
		slog.Info("fulfilment ignored, order is not placed", "orderNo", orderNo)
		return nil
	}
	return err
}

func (x *OrderService) RunMessageProcessing(ctx context.Context) {

	deliveries, err := x.rabbitmq.Subscribe(
		ctx,
		"order_fulfilment_queue",
		keyOrderFulfilled,
	)
	if err != nil {
		slog.Error("failed to subscribe", "err", err)
		return
	}

	for msg := range deliveries {
		x.handleFulfilled(ctx, msg)
	}
}

func (x *OrderService) handleFulfilled(ctx context.Context, msg amqp.Delivery) {

	orderNo := strings.TrimSpace(string(msg.Body))

	if err := x.MarkFulfilled(ctx, orderNo); err != nil {
		slog.Error("failed to mark order fulfilled", "orderNo", orderNo, "err", err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			slog.Debug("nack", "err", nackErr)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Debug("ack", "err", err)
	}
}

func (x *OrderService) getOrder(ctx context.Context, orderNo string) (*dbOrder, error) {

	if strings.TrimSpace(orderNo) == "" {
		return nil, errNoOrderNo
	}

	order, err := x.orders.GetOrder(ctx, orderNo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errOrderNotFound
		}
		slog.Error("get order", "err", err)
		return nil, errInternal
	}
	return order, nil
}

// publish never fails the caller, a lost event is only logged.
func (x *OrderService) publish(ctx context.Context, routingKey, orderNo string, v any) {

	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal event", "routingKey", routingKey, "err", err)
		return
	}

	err = x.rabbitmq.Publish(ctx, routingKey, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		slog.Error("failed to publish event", "routingKey", routingKey, "err", err)
		return
	}

	slog.Info("published event",
		"routingKey", routingKey,
		"orderNo", orderNo,
	)
}
