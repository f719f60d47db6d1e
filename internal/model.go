// This file contains the structures used for moving data between
// the app and the database.
package internal

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

type Country string

const (
	CountryIndia   Country = "India"
	CountryAmerica Country = "America"
)

func (c Country) IsValid() bool {
	switch c {
	case CountryIndia, CountryAmerica:
		return true
	}
	return false
}

// Currency is display only. Amounts are never converted.
func (c Country) Currency() string {
	if c == CountryIndia {
		return "INR"
	}
	return "USD"
}

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "Placed"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusFulfilled OrderStatus = "Fulfilled"
)

// PaymentOption is how an order is paid.
type PaymentOption string

const (
	PaymentCOD  PaymentOption = "COD"
	PaymentCard PaymentOption = "CARD"
	PaymentUPI  PaymentOption = "UPI"
)

func (p PaymentOption) IsValid() bool {
	switch p {
	case PaymentCOD, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusCOD    PaymentStatus = "cod"
	PaymentStatusFailed PaymentStatus = "failed"
)

// MethodType is the kind of a saved payment instrument.
type MethodType string

const (
	MethodCard MethodType = "CARD"
	MethodUPI  MethodType = "UPI"
	MethodBank MethodType = "BANK"
)

func (m MethodType) IsValid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodBank:
		return true
	}
	return false
}

// ================================ database ================================

// if not omitempty at id Mongo will use zero as id ( when insert )
type dbUser struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	Role         Role      `bson:"role"`
	Country      Country   `bson:"country"`
	CreateTime   time.Time `bson:"createdAt"`
}

type dbRestaurant struct {
	ID         string        `bson:"_id"`
	Name       string        `bson:"name"`
	Cuisine    string        `bson:"cuisine"`
	City       string        `bson:"city"`
	Country    Country       `bson:"country"`
	CoverImage string        `bson:"coverImage"`
	Categories []string      `bson:"categories"`
	Menu       []*dbMenuItem `bson:"menu"`
	CreateTime time.Time     `bson:"createdAt"`
}

type dbMenuItem struct {
	ItemID      string          `bson:"id"`
	Name        string          `bson:"name"`
	Description string          `bson:"description"`
	Price       bson.Decimal128 `bson:"price"`
	Image       string          `bson:"image"`
}

type dbPaymentMethod struct {
	ID         string           `bson:"_id"`
	Nickname   string           `bson:"nickname"`
	Type       MethodType       `bson:"type"`
	Country    Country          `bson:"country"`
	IsDefault  bool             `bson:"isDefault"`
	Details    dbPaymentDetails `bson:"details"`
	CreatedBy  string           `bson:"createdBy"`
	CreateTime time.Time        `bson:"createdAt"`
}

// Full card numbers and CVV never reach this struct.
type dbPaymentDetails struct {
	Brand string `bson:"brand,omitempty"`
	Last4 string `bson:"last4,omitempty"`
	Exp   string `bson:"exp,omitempty"`
}

type dbOrder struct {
	ID             bson.ObjectID   `bson:"_id,omitempty"`
	OrderNo        string          `bson:"orderNo"`
	UserID         string          `bson:"userId"`
	RestaurantID   string          `bson:"restaurantId"`
	RestaurantName string          `bson:"restaurantName"`
	Country        Country         `bson:"country"`
	Items          []*dbOrderItem  `bson:"items"`
	Total          bson.Decimal128 `bson:"total"`
	Status         OrderStatus     `bson:"status"`
	PaymentMethod  PaymentOption   `bson:"paymentMethod"`
	PaymentStatus  PaymentStatus   `bson:"paymentStatus"`
	TxnID          string          `bson:"txnId"`
	PaidAt         *time.Time      `bson:"paidAt"`
	CreateTime     time.Time       `bson:"createdAt"`
	UpdateTime     time.Time       `bson:"updatedAt"`
}

type dbOrderItem struct {
	RestaurantID string          `bson:"restaurantId"`
	ItemID       string          `bson:"itemId"`
	Name         string          `bson:"name"`
	Price        bson.Decimal128 `bson:"price"`
	Qty          int             `bson:"qty"`
}

type dbCancelledOrder struct {
	ID             bson.ObjectID   `bson:"_id,omitempty"`
	OrderNo        string          `bson:"orderNo"`
	UserID         string          `bson:"userId"`
	Country        Country         `bson:"country"`
	Items          []*dbOrderItem  `bson:"items"`
	Total          bson.Decimal128 `bson:"total"`
	PaymentMethod  PaymentOption   `bson:"paymentMethod"`
	PaymentStatus  PaymentStatus   `bson:"paymentStatus"`
	TxnID          string          `bson:"txnId"`
	PaidAt         *time.Time      `bson:"paidAt"`
	StatusAtCancel OrderStatus     `bson:"statusAtCancel"`
	CancelledAt    time.Time       `bson:"cancelledAt"`
	CancelledBy    string          `bson:"cancelledBy"`
	CancelReason   string          `bson:"cancelReason"`
}

type dbCounter struct {
	Key string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// ================================== API ==================================

type Order struct {
	OrderNo        string          `json:"orderNo"`
	UserID         string          `json:"userId"`
	RestaurantID   string          `json:"restaurantId"`
	RestaurantName string          `json:"restaurantName"`
	Country        Country         `json:"country"`
	Currency       string          `json:"currency"`
	Items          []*OrderItem    `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  PaymentOption   `json:"paymentMethod"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	TxnID          string          `json:"txnId"`
	PaidAt         *time.Time      `json:"paidAt"`
	CreateTime     time.Time       `json:"createdAt"`
	UpdateTime     time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	RestaurantID string          `json:"restaurantId"`
	ItemID       string          `json:"itemId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Qty          int             `json:"qty"`
}

type CancelledOrder struct {
	OrderNo        string          `json:"orderNo"`
	UserID         string          `json:"userId"`
	Country        Country         `json:"country"`
	Items          []*OrderItem    `json:"items"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  PaymentOption   `json:"paymentMethod"`
	PaymentStatus  PaymentStatus   `json:"paymentStatus"`
	TxnID          string          `json:"txnId"`
	PaidAt         *time.Time      `json:"paidAt"`
	StatusAtCancel OrderStatus     `json:"statusAtCancel"`
	CancelledAt    time.Time       `json:"cancelledAt"`
	CancelledBy    string          `json:"cancelledBy"`
	CancelReason   string          `json:"cancelReason"`
}

// PaymentMethodView is the only shape of a saved method that leaves the service.
type PaymentMethodView struct {
	ID       string     `json:"id"`
	Nickname string     `json:"nickname"`
	Type     MethodType `json:"type"`
	Brand    string     `json:"brand"`
	Last4    string     `json:"last4"`
}

type Restaurant struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Cuisine    string      `json:"cuisine"`
	City       string      `json:"city"`
	Country    Country     `json:"country"`
	CoverImage string      `json:"coverImage"`
	Categories []string    `json:"categories"`
	Menu       []*MenuItem `json:"menu"`
}

type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Role    Role    `json:"role"`
	Country Country `json:"country"`
}

func timeNow() time.Time {
	return time.Now().UTC()
}

func toDecimal128(d decimal.Decimal) bson.Decimal128 {
	v, err := bson.ParseDecimal128(d.StringFixed(2))
	if err != nil {
		return bson.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v bson.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func intoOrderItems(items []*dbOrderItem) []*OrderItem {
	out := make([]*OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, &OrderItem{
			RestaurantID: it.RestaurantID,
			ItemID:       it.ItemID,
			Name:         it.Name,
			Price:        fromDecimal128(it.Price),
			Qty:          it.Qty,
		})
	}
	return out
}

func (o *dbOrder) IntoOrder() *Order {
	if o == nil {
		return nil
	}
	return &Order{
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		RestaurantID:   o.RestaurantID,
		RestaurantName: o.RestaurantName,
		Country:        o.Country,
		Currency:       o.Country.Currency(),
		Items:          intoOrderItems(o.Items),
		Total:          fromDecimal128(o.Total),
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		TxnID:          o.TxnID,
		PaidAt:         o.PaidAt,
		CreateTime:     o.CreateTime,
		UpdateTime:     o.UpdateTime,
	}
}

func (c *dbCancelledOrder) IntoCancelledOrder() *CancelledOrder {
	if c == nil {
		return nil
	}
	return &CancelledOrder{
		OrderNo:        c.OrderNo,
		UserID:         c.UserID,
		Country:        c.Country,
		Items:          intoOrderItems(c.Items),
		Total:          fromDecimal128(c.Total),
		PaymentMethod:  c.PaymentMethod,
		PaymentStatus:  c.PaymentStatus,
		TxnID:          c.TxnID,
		PaidAt:         c.PaidAt,
		StatusAtCancel: c.StatusAtCancel,
		CancelledAt:    c.CancelledAt,
		CancelledBy:    c.CancelledBy,
		CancelReason:   c.CancelReason,
	}
}

func (m *dbPaymentMethod) IntoView() *PaymentMethodView {
	brand := m.Details.Brand
	if brand == "" {
		brand = "CARD"
	}
	return &PaymentMethodView{
		ID:       m.ID,
		Nickname: m.Nickname,
		Type:     m.Type,
		Brand:    brand,
		Last4:    m.Details.Last4,
	}
}

func (r *dbRestaurant) IntoRestaurant() *Restaurant {
	if r == nil {
		return nil
	}
	menu := make([]*MenuItem, 0, len(r.Menu))
	for _, m := range r.Menu {
		menu = append(menu, &MenuItem{
			ID:          m.ItemID,
			Name:        m.Name,
			Description: m.Description,
			Price:       fromDecimal128(m.Price),
			Image:       m.Image,
		})
	}
	categories := r.Categories
	if categories == nil {
		categories = []string{}
	}
	return &Restaurant{
		ID:         r.ID,
		Name:       r.Name,
		Cuisine:    r.Cuisine,
		City:       r.City,
		Country:    r.Country,
		CoverImage: r.CoverImage,
		Categories: categories,
		Menu:       menu,
	}
}

func (u *dbUser) IntoUser() *User {
	return &User{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Country: u.Country,
	}
}

// findItem returns the menu item with the given id, or nil.
func (r *dbRestaurant) findItem(itemID string) *dbMenuItem {
	for _, m := range r.Menu {
		if m.ItemID == itemID {
			return m
		}
	}
	return nil
}
