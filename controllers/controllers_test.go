package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/controllers"
	"github.com/yashrajoria/restaurant-backend/database"
	"github.com/yashrajoria/restaurant-backend/middleware"
	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
	"github.com/yashrajoria/restaurant-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := controllers.RegisterValidators(); err != nil {
		panic(err)
	}
}

type MockCatalog struct {
	mock.Mock
	controllers.CatalogServiceAPI
}

func (m *MockCatalog) ListDishes(ctx context.Context, filter models.DishFilter, availableOnly bool) (*models.Paginated[models.Dish], error) {
	args := m.Called(ctx, filter, availableOnly)
	return args.Get(0).(*models.Paginated[models.Dish]), args.Error(1)
}

type MockAccounts struct {
	mock.Mock
	controllers.AccountServiceAPI
}

func (m *MockAccounts) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

type MockPayments struct {
	mock.Mock
	controllers.PaymentServiceAPI
}

func (m *MockPayments) ConfirmRedirect(ctx context.Context, sessionID string, userID uuid.UUID) (*models.PaymentConfirmation, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentConfirmation), args.Error(1)
}

func setupStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "controllers.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

func seedDish(t *testing.T, store *repository.Store, name string, priceCents int64, stock int) *models.Dish {
	t.Helper()
	ctx := context.Background()
	category := &models.Category{Name: "Pizza", Slug: "pizza", IsActive: true}
	require.NoError(t, store.Categories.Create(ctx, category))
	dish := &models.Dish{
		Name:              name,
		Slug:              models.Slugify(name),
		PriceCents:        priceCents,
		CategoryID:        category.ID,
		IsAvailable:       true,
		StockQuantity:     stock,
		LowStockThreshold: models.DefaultLowStockThreshold,
		PreparationTime:   models.DefaultPreparationTime,
	}
	require.NoError(t, store.Dishes.Create(ctx, dish))
	return dish
}

// withGatewayIdentity authenticates requests from the X-User-ID header.
func withGatewayIdentity() gin.HandlerFunc {
	return middleware.NewAuthenticationResolver(middleware.GatewayHeaderStrategy{}).RequireAuth()
}

func jsonRequest(method, path string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListDishes_ParsesFilters(t *testing.T) {
	catalog := new(MockCatalog)
	category := uuid.New()
	catalog.On("ListDishes", mock.Anything, mock.MatchedBy(func(f models.DishFilter) bool {
		return f.Page == 2 && f.PerPage == 5 && f.CategoryID != nil && *f.CategoryID == category &&
			f.IsVegetarian != nil && *f.IsVegetarian && f.IsSpicy == nil &&
			f.Search == "marg" && f.Ordering == "-price"
	}), true).Return(&models.Paginated[models.Dish]{Results: []models.Dish{}, Page: 2, PerPage: 5}, nil)

	ctrl := controllers.NewCatalogController(catalog, controllers.NewRequestValidator(), zap.NewNop())
	r := gin.New()
	r.GET("/dishes", ctrl.ListDishes)

	w := serve(r, httptest.NewRequest(http.MethodGet,
		"/dishes?page=2&per_page=5&category="+category.String()+"&is_vegetarian=true&search=marg&ordering=-price", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	catalog.AssertExpectations(t)
}

func TestListDishes_InvalidCategory(t *testing.T) {
	catalog := new(MockCatalog)
	ctrl := controllers.NewCatalogController(catalog, controllers.NewRequestValidator(), zap.NewNop())
	r := gin.New()
	r.GET("/dishes", ctrl.ListDishes)

	for _, query := range []string{"category=not-a-uuid", "is_spicy=maybe", "page=0", "per_page=abc"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/dishes?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
	catalog.AssertNotCalled(t, "ListDishes", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_HTTP(t *testing.T) {
	store := setupStore(t)
	dish := seedDish(t, store, "Margherita", 8500, 10)
	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users.CreateUser(context.Background(), user))

	orders := services.NewOrderService(services.OrderServiceDeps{Store: store, Logger: zap.NewNop()})
	ctrl := controllers.NewOrderController(orders, controllers.NewRequestValidator(), zap.NewNop())
	r := gin.New()
	r.POST("/orders", withGatewayIdentity(), ctrl.PlaceOrder)

	place := func(qty int) *httptest.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/orders", gin.H{
			"delivery_address": "1 Main St",
			"items":            []gin.H{{"dish_id": dish.ID, "quantity": qty}},
		})
		req.Header.Set(middleware.GatewayUserID, user.ID.String())
		return serve(r, req)
	}

	w := place(11)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "InsufficientStock", body["reason"])
	assert.EqualValues(t, 10, body["details"].(map[string]any)["available"])

	w = place(3)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.EqualValues(t, 25500, order.TotalAmountCents)

	left, err := store.Stock.Available(context.Background(), dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, left)
}

func TestPlaceOrder_RejectsMalformedBody(t *testing.T) {
	ctrl := controllers.NewOrderController(nil, controllers.NewRequestValidator(), zap.NewNop())
	r := gin.New()
	r.POST("/orders", withGatewayIdentity(), ctrl.PlaceOrder)

	req := jsonRequest(http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"dish_id": uuid.New(), "quantity": 0}},
	})
	req.Header.Set(middleware.GatewayUserID, uuid.NewString())
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "delivery_address")
	assert.Contains(t, w.Body.String(), "items[0].quantity")
}

func TestRegister_CustomValidators(t *testing.T) {
	ctrl := controllers.NewAuthController(nil, controllers.CookieConfig{}, zap.NewNop())
	r := gin.New()
	r.POST("/register", ctrl.Register)

	w := serve(r, jsonRequest(http.MethodPost, "/register", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "password1",
		"first_name": "Bob", "last_name": "Smith", "phone": "12-34", "address": "2 High St",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"phone":"phone"`)
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("Login", mock.Anything, models.LoginRequest{Username: "alice", Password: "secret123"}).
		Return(&models.LoginResponse{AccessToken: "jwt", SessionKey: "sess-1"}, nil)
	accounts.On("Login", mock.Anything, models.LoginRequest{Username: "alice", Password: "wrong"}).
		Return(nil, apperrors.Unauthorized("Invalid username or password"))

	ctrl := controllers.NewAuthController(accounts, controllers.CookieConfig{}, zap.NewNop())
	r := gin.New()
	r.POST("/login", ctrl.Login)

	w := serve(r, jsonRequest(http.MethodPost, "/login", gin.H{"username": "alice", "password": "secret123"}))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, "sess-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	w = serve(r, jsonRequest(http.MethodPost, "/login", gin.H{"username": "alice", "password": "wrong"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	store := setupStore(t)
	dish := seedDish(t, store, "Margherita", 8500, 10)

	gateway := services.NewStripeGateway("sk_test_unused", "whsec_test_secret", 0)
	orders := services.NewOrderService(services.OrderServiceDeps{Store: store, Logger: zap.NewNop()})
	payments := services.NewPaymentService(store, gateway, orders, nil, nil, services.PaymentConfig{}, zap.NewNop())
	ctrl := controllers.NewPaymentController(payments, zap.NewNop())
	r := gin.New()
	r.POST("/webhook", ctrl.StripeWebhook)

	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_status":"paid"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := serve(r, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "InvalidSignature")

	var count int64
	require.NoError(t, store.DB().Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	left, err := store.Stock.Available(context.Background(), dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, left)
}

func TestStripeSuccess_PassesCaller(t *testing.T) {
	payments := new(MockPayments)
	ctrl := controllers.NewPaymentController(payments, zap.NewNop())
	r := gin.New()
	r.GET("/success", middleware.NewAuthenticationResolver(middleware.GatewayHeaderStrategy{}).OptionalAuth(), ctrl.Success)

	orderID, userID := uuid.New(), uuid.New()
	payments.On("ConfirmRedirect", mock.Anything, "cs_1", uuid.Nil).
		Return(&models.PaymentConfirmation{Message: "Payment successful! Your order has been confirmed."}, nil).Once()
	payments.On("ConfirmRedirect", mock.Anything, "cs_1", userID).
		Return(&models.PaymentConfirmation{Message: "Payment successful! Your order has been confirmed.", OrderID: &orderID, TotalAmount: 12.5}, nil).Once()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/success?session_id=cs_1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "order_id")
	assert.NotContains(t, w.Body.String(), "total_amount")

	req := httptest.NewRequest(http.MethodGet, "/success?session_id=cs_1", nil)
	req.Header.Set(middleware.GatewayUserID, userID.String())
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orderID.String())
	payments.AssertExpectations(t)
}
