package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestClient(t *testing.T, r *gin.Engine) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, Options{Timeout: 2 * time.Second, MaxTries: 3, RetryInitial: time.Millisecond})
}

func TestLoginDecodesTopLevelBody(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", func(c *gin.Context) {
		var req LoginRequest
		require.NoError(t, c.ShouldBindJSON(&req))
		assert.Equal(t, "ana@example.com", req.Email)
		c.JSON(http.StatusOK, gin.H{"ok": true, "token": "tok", "user": gin.H{"id": "7", "email": req.Email, "role": "customer"}})
	})
	c := newTestClient(t, r)

	res, err := c.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "7", res.User.ID)
	assert.Equal(t, entity.RoleCustomer, res.User.Role)
}

func TestEnvelopeDataIsUnwrapped(t *testing.T) {
	r := gin.New()
	r.GET("/categories", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "data": []gin.H{{"id": "1", "name": "Bebidas"}}})
	})
	r.GET("/products", func(c *gin.Context) {
		assert.Equal(t, "1", c.Query("categoryId"))
		assert.Equal(t, "true", c.Query("available"))
		c.JSON(http.StatusOK, []gin.H{{"id": "p1", "name": "Café", "price": "2.50", "available": true}})
	})
	c := newTestClient(t, r)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Bebidas", cats[0].Name)

	prods, err := c.Products(context.Background(), ProductFilter{CategoryID: "1", AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, prods, 1)
	assert.True(t, decimal.RequireFromString("2.5").Equal(prods[0].Price))
}

func TestErrorMessageExtraction(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid credentials"})
	})
	r.POST("/orders", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"message": "product out of stock"})
	})
	r.GET("/orders/:id", func(c *gin.Context) {
		c.String(http.StatusNotFound, "nope")
	})
	c := newTestClient(t, r)
	ctx := context.Background()

	_, err := c.Login(ctx, LoginRequest{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
	assert.True(t, IsUnauthorized(err))

	_, err = c.CreateOrder(ctx, CreateOrderRequest{UserID: "1"})
	assert.Equal(t, "product out of stock", err.Error())
	assert.Equal(t, http.StatusConflict, StatusOf(err))

	_, err = c.Order(ctx, "9")
	assert.Equal(t, "Not found", err.Error())
}

func TestUnauthorizedHookOnlyForAuthenticatedCalls(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	})
	r.GET("/auth/me", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer expired" {
			t.Errorf("unexpected auth header %q", c.GetHeader("Authorization"))
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
	})
	base := newTestClient(t, r)

	var fired atomic.Int32
	anon := base.Scoped(func() string { return "" }, func() { fired.Add(1) })
	_, err := anon.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	require.Error(t, err)
	assert.Equal(t, int32(0), fired.Load(), "a failed login must not invalidate anything")

	authed := base.Scoped(func() string { return "expired" }, func() { fired.Add(1) })
	_, err = authed.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), fired.Load())
}

func TestGetIsRetriedOnServerError(t *testing.T) {
	var calls atomic.Int32
	r := gin.New()
	r.GET("/categories", func(c *gin.Context) {
		if calls.Add(1) < 3 {
			c.JSON(http.StatusBadGateway, gin.H{"error": "upstream"})
			return
		}
		c.JSON(http.StatusOK, []gin.H{{"id": "1", "name": "Platos"}})
	})
	c := newTestClient(t, r)

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAndWritesAreNotRetried(t *testing.T) {
	var gets, posts atomic.Int32
	r := gin.New()
	r.GET("/orders/:id", func(c *gin.Context) {
		gets.Add(1)
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	})
	r.POST("/orders", func(c *gin.Context) {
		posts.Add(1)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	c := newTestClient(t, r)

	_, err := c.Order(context.Background(), "1")
	assert.Equal(t, "order not found", err.Error())
	assert.Equal(t, int32(1), gets.Load())

	_, err = c.CreateOrder(context.Background(), CreateOrderRequest{UserID: "1"})
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, int32(1), posts.Load())
}

func TestNetworkErrorHasFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, Options{Timeout: time.Second, MaxTries: 1})
	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{UserID: "1"})
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
	assert.Contains(t, err.Error(), "Network error")
}

func TestCreateOrderPayload(t *testing.T) {
	r := gin.New()
	r.POST("/orders", func(c *gin.Context) {
		var req CreateOrderRequest
		require.NoError(t, c.ShouldBindJSON(&req))
		assert.Equal(t, "u1", req.UserID)
		assert.Equal(t, "2", req.TableID)
		assert.Empty(t, req.DeliveryAddress)
		assert.Equal(t, entity.PaymentCard, req.PaymentMethod)
		assert.Equal(t, entity.PaymentPaid, req.PaymentStatus)
		require.Len(t, req.Items, 1)
		assert.Equal(t, 2, req.Items[0].Quantity)
		c.JSON(http.StatusCreated, gin.H{"ok": true, "data": gin.H{"id": "55", "orderNumber": "AP-0055", "total": "24.00", "paymentStatus": "paid"}})
	})
	c := newTestClient(t, r)

	res, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		UserID:        "u1",
		TableID:       "2",
		Items:         []OrderItemRequest{{ProductID: "p", Quantity: 2, UnitPrice: decimal.NewFromInt(12)}},
		PaymentMethod: entity.PaymentCard,
		PaymentStatus: entity.PaymentPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, "AP-0055", res.OrderNumber)
	assert.True(t, decimal.NewFromInt(24).Equal(res.Total))
}
