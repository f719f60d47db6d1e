package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/status"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	auth        *AuthService
	orders      *OrderService
	payments    *PaymentService
	restaurants *RestaurantService
	health      HealthCheck
}

func NewHandler(
	auth *AuthService,
	orders *OrderService,
	payments *PaymentService,
	restaurants *RestaurantService,
	health HealthCheck,
) *Handler {
	return &Handler{
		auth:        auth,
		orders:      orders,
		payments:    payments,
		restaurants: restaurants,
		health:      health,
	}
}

func NewRouter(h *Handler, corsOrigin string) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger())
	r.Use(CORS(corsOrigin))

	r.GET("/healthz", h.Healthz)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}

	api := r.Group("/", Authn(h.auth))
	{
		api.GET("/me", h.Me)

		api.GET("/restaurants", h.ListRestaurants)
		api.POST("/restaurants", h.CreateRestaurant)
		api.GET("/restaurants/:id", h.GetRestaurant)
		api.DELETE("/restaurants/:id", h.DeleteRestaurant)
		api.POST("/restaurants/:id/menu", h.AddMenuItem)
		api.PUT("/restaurants/:id/menu/:itemId", h.UpdateMenuItem)
		api.DELETE("/restaurants/:id/menu/:itemId", h.DeleteMenuItem)

		api.POST("/orders/checkout", h.Checkout)
		api.GET("/orders", h.ListMyOrders)
		api.GET("/orders/cancelled", h.ListCancelled)
		api.GET("/orders/:orderNo", h.GetOrder)
		api.POST("/orders/:orderNo/cancel", h.Cancel)
		api.PUT("/orders/:orderNo/payment", h.UpdatePayment)

		api.POST("/payments/charge", h.Charge)

		api.GET("/payment-methods", h.ListPaymentMethods)
		api.POST("/payment-methods", h.CreatePaymentMethod)
	}

	return r
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.health(c.Request.Context()); err != nil {
		slog.Error("health check", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ------------------------------- auth -------------------------------

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req, false) {
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "email": user.Email})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req, false) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": actorFrom(c)})
}

// ---------------------------- restaurants ----------------------------

func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.restaurants.ListRestaurants(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

func (h *Handler) GetRestaurant(c *gin.Context) {
	restaurant, err := h.restaurants.GetRestaurant(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req CreateRestaurantRequest
	if !bindJSON(c, &req, false) {
		return
	}

	restaurant, err := h.restaurants.CreateRestaurant(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": restaurant})
}

func (h *Handler) DeleteRestaurant(c *gin.Context) {
	if err := h.restaurants.DeleteRestaurant(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AddMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if !bindJSON(c, &req, false) {
		return
	}

	restaurant, err := h.restaurants.AddMenuItem(c.Request.Context(), actorFrom(c), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": restaurant})
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if !bindJSON(c, &req, false) {
		return
	}

	restaurant, err := h.restaurants.UpdateMenuItem(c.Request.Context(), actorFrom(c),
		c.Param("id"), c.Param("itemId"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	restaurant, err := h.restaurants.DeleteMenuItem(c.Request.Context(), actorFrom(c),
		c.Param("id"), c.Param("itemId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// ------------------------------ orders ------------------------------

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req, false) {
		return
	}

	order, err := h.orders.Checkout(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderNo": order.OrderNo, "order": order})
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	orders, err := h.orders.ListMyOrders(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), actorFrom(c), c.Param("orderNo"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !bindJSON(c, &req, true) {
		return
	}

	res, err := h.orders.Cancel(c.Request.Context(), actorFrom(c), c.Param("orderNo"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"order":     res.Order,
		"cancelled": res.Cancelled,
		"duplicate": res.Duplicate,
	})
}

func (h *Handler) ListCancelled(c *gin.Context) {
	cancelled, err := h.orders.ListCancelled(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if !bindJSON(c, &req, false) {
		return
	}

	order, err := h.orders.UpdatePayment(c.Request.Context(), actorFrom(c), c.Param("orderNo"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// ----------------------------- payments -----------------------------

func (h *Handler) Charge(c *gin.Context) {
	var req ChargeRequest
	if !bindJSON(c, &req, false) {
		return
	}

	res, err := h.orders.Charge(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"order":         res.Order,
		"txnId":         res.TxnID,
		"savedMethodId": res.SavedMethodID,
	})
}

func (h *Handler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.payments.ListMethods(c.Request.Context(), actorFrom(c), c.Query("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

func (h *Handler) CreatePaymentMethod(c *gin.Context) {
	var req CreatePaymentMethodRequest
	if !bindJSON(c, &req, false) {
		return
	}

	method, err := h.payments.CreateMethod(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"method": method})
}

// bindJSON decodes the request body into v and writes a 400 on failure.
// An empty body is accepted when optional is set.
func bindJSON(c *gin.Context, v any, optional bool) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// writeError maps a status error onto its HTTP status code. Anything else
// is reported as a generic 500.
func writeError(c *gin.Context, err error) {
	st, ok := status.FromError(err)
	if !ok {
		slog.Error("unexpected error", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(runtime.HTTPStatusFromCode(st.Code()), gin.H{"error": st.Message()})
}
