package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/controllers"
	"github.com/yashrajoria/restaurant-backend/database"
	"github.com/yashrajoria/restaurant-backend/middleware"
	"github.com/yashrajoria/restaurant-backend/models"
	"github.com/yashrajoria/restaurant-backend/repository"
	"github.com/yashrajoria/restaurant-backend/routes"
	"github.com/yashrajoria/restaurant-backend/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticGate map[uuid.UUID]bool

func (g staticGate) IsAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	return g[userID], nil
}

type fixture struct {
	router     *gin.Engine
	store      *repository.Store
	adminID    uuid.UUID
	customerID uuid.UUID
	admin      string
	customer   string
}

type backends struct {
	store         *repository.Store
	accounts      controllers.AccountServiceAPI
	catalog       controllers.CatalogServiceAPI
	orders        controllers.OrderServiceAPI
	payments      controllers.PaymentServiceAPI
	ratings       controllers.RatingServiceAPI
	notifications controllers.NotificationServiceAPI
	restaurants   controllers.RestaurantServiceAPI
	stats         controllers.StatsServiceAPI
}

// newFixture mounts the real route table. The controllers have no
// services behind them, so only requests stopped by a guard or by
// parameter parsing may be sent.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return mount(t, backends{})
}

// newLiveFixture mounts the route table over real services backed by a
// sqlite store. Both callers exist as users.
func newLiveFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "routes.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := repository.NewStore(db)
	log := zap.NewNop()
	orders := services.NewOrderService(services.OrderServiceDeps{Store: store, Logger: log})
	return mount(t, backends{
		store: store,
		accounts: services.NewAccountService(services.AccountServiceDeps{
			Store:  store,
			Tokens: services.NewTokenService("test-secret", time.Hour),
			Gate:   services.NewAdminGate(store, log),
			Logger: log,
		}),
		catalog:       services.NewCatalogService(store, nil, log),
		orders:        orders,
		notifications: services.NewNotificationService(store.Notifications, store.Admins, log),
		restaurants:   services.NewRestaurantService(store, log),
		stats:         services.NewStatsService(store, log),
	})
}

func mount(t *testing.T, b backends) *fixture {
	t.Helper()
	require.NoError(t, controllers.RegisterValidators())

	tokens := services.NewTokenService("test-secret", time.Hour)
	adminID, customerID := uuid.New(), uuid.New()
	adminToken, err := tokens.Issue(adminID, "admin@example.com")
	require.NoError(t, err)
	customerToken, err := tokens.Issue(customerID, "customer@example.com")
	require.NoError(t, err)

	if b.store != nil {
		for id, name := range map[uuid.UUID]string{adminID: "admin", customerID: "customer"} {
			user := &models.User{ID: id, Username: name, Email: name + "@example.com", PasswordHash: "x"}
			require.NoError(t, b.store.Users.CreateUser(context.Background(), user))
		}
	}

	log := zap.NewNop()
	v := controllers.NewRequestValidator()
	r := gin.New()
	routes.RegisterRoutes(r, routes.Controllers{
		Auth:          controllers.NewAuthController(b.accounts, controllers.CookieConfig{}, log),
		Catalog:       controllers.NewCatalogController(b.catalog, v, log),
		Orders:        controllers.NewOrderController(b.orders, v, log),
		Payments:      controllers.NewPaymentController(b.payments, log),
		Ratings:       controllers.NewRatingController(b.ratings, v, log),
		Notifications: controllers.NewNotificationController(b.notifications, v, log),
		Restaurants:   controllers.NewRestaurantController(b.restaurants, v, log),
		Stats:         controllers.NewStatsController(b.stats, log),
	}, routes.Guards{
		Resolver: middleware.NewAuthenticationResolver(middleware.Strategies(tokens, nil, false)...),
		Admins:   staticGate{adminID: true},
		Logger:   log,
	})
	return &fixture{
		router:     r,
		store:      b.store,
		adminID:    adminID,
		customerID: customerID,
		admin:      adminToken,
		customer:   customerToken,
	}
}

func (f *fixture) do(method, path, token string) int {
	return f.send(method, path, token, `{}`).Code
}

func (f *fixture) send(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAdminRoutes_RejectNonAdmins(t *testing.T) {
	f := newFixture(t)
	id := uuid.NewString()

	adminRoutes := 0
	mutations := 0
	for _, route := range f.router.Routes() {
		if !strings.HasPrefix(route.Path, "/api/admin/") {
			continue
		}
		adminRoutes++
		if route.Method != http.MethodGet {
			mutations++
		}
		path := strings.ReplaceAll(route.Path, ":id", id)

		assert.Equal(t, http.StatusForbidden, f.do(route.Method, path, f.customer), "%s %s as customer", route.Method, route.Path)
		assert.Equal(t, http.StatusUnauthorized, f.do(route.Method, path, ""), "%s %s anonymous", route.Method, route.Path)
	}
	assert.Equal(t, 23, adminRoutes)
	assert.Equal(t, 11, mutations)
}

func TestAdminRoutes_AdminPassesGate(t *testing.T) {
	f := newFixture(t)

	// A malformed id is rejected by the handler, which proves the gate let
	// the request through.
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/admin/dishes/not-a-uuid", f.admin))
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/api/admin/orders/not-a-uuid/status", f.admin))
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/api/admin/categories/not-a-uuid", f.admin))
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/admin/restaurants/not-a-uuid", f.admin))
}

func TestCustomerRoutes_RequireAuthentication(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/orders", "/api/ratings", "/api/notifications", "/api/auth/profile"} {
		assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, path, ""), path)
	}
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPut, "/api/auth/profile", ""))
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/notifications/mark-all-read", ""))
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/stripe/create-checkout-session", ""))
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/stripe/cancel", ""))
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/dishes/not-a-uuid", ""))
}

func TestAdminStatsRoutes_Serve(t *testing.T) {
	f := newLiveFixture(t)
	ctx := context.Background()
	category := &models.Category{Name: "Pizza", Slug: "pizza", IsActive: true}
	require.NoError(t, f.store.Categories.Create(ctx, category))
	dish := &models.Dish{Name: "Margherita", Slug: "margherita", PriceCents: 8500, CategoryID: category.ID,
		IsAvailable: true, StockQuantity: 10, LowStockThreshold: models.DefaultLowStockThreshold}
	require.NoError(t, f.store.Dishes.Create(ctx, dish))
	w := f.send(http.MethodPost, "/api/orders", f.customer,
		`{"delivery_address":"1 Main St","items":[{"dish_id":"`+dish.ID.String()+`","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.send(http.MethodGet, "/api/admin/orders/stats", f.admin, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats models.OrderStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, []models.StatusCount{{Status: models.OrderStatusPending, Count: 1}}, stats.ByStatus)

	w = f.send(http.MethodGet, "/api/admin/dashboard-stats", f.admin, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var dashboard map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	for _, key := range []string{"overview", "today_stats", "recent_stats", "performance", "order_statuses", "top_dishes"} {
		assert.Contains(t, dashboard, key)
	}

	w = f.send(http.MethodGet, "/api/homepage-stats", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"total_customers":1,"dishes_served_today":0,"menu_items":1,"average_rating":0}`, w.Body.String())

	w = f.send(http.MethodGet, "/api/menu-overview", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var overview models.MenuOverview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Len(t, overview.Categories, 1)
	assert.Len(t, overview.FeaturedDishes, 1)
}

func TestRestaurantRoutes(t *testing.T) {
	f := newLiveFixture(t)

	w := f.send(http.MethodGet, "/api/restaurant-info", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Restaurant information not available")

	body := `{"name":"Harbour","address":"1 Harbour Rd","phone":"5550100100","email":"hi@example.com","opening_time":"11:00","closing_time":"23:00"}`
	assert.Equal(t, http.StatusForbidden, f.send(http.MethodPost, "/api/admin/restaurants", f.customer, body).Code)

	bad := strings.Replace(body, `"23:00"`, `"25:00"`, 1)
	w = f.send(http.MethodPost, "/api/admin/restaurants", f.admin, bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "closing_time")

	w = f.send(http.MethodPost, "/api/admin/restaurants", f.admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Restaurant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.IsActive)

	w = f.send(http.MethodGet, "/api/restaurant-info", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info models.Restaurant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, created.ID, info.ID)

	assert.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/admin/restaurants/"+created.ID.String(), f.admin))
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/restaurant-info", ""))
}

func TestCustomerAccountRoutes(t *testing.T) {
	f := newLiveFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, f.store.Notifications.Create(ctx, &models.Notification{
			UserID: f.customerID, Title: "Order Ready", Message: "x", Type: models.NotificationOrderReady,
		}))
	}

	w := f.send(http.MethodPost, "/api/notifications/mark-all-read", f.customer, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"updated":2`)

	w = f.send(http.MethodPut, "/api/auth/profile", f.customer, `{"phone":"12-34"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.send(http.MethodPut, "/api/auth/profile", f.customer, `{"first_name":"Cara","phone":"5550100200","address":"3 Low St"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile models.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Cara", profile.User.FirstName)
	require.NotNil(t, profile.Customer.Phone)
	assert.Equal(t, "5550100200", *profile.Customer.Phone)
	assert.Equal(t, "3 Low St", profile.Customer.Address)
}
