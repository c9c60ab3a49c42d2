package services_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yashrajoria/restaurant-backend/database"
	"github.com/yashrajoria/restaurant-backend/models"
	"github.com/yashrajoria/restaurant-backend/repository"
	"github.com/yashrajoria/restaurant-backend/services"
)

func setupStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	return migrate(t, db)
}

// setupPooledStore serves the store from several WAL connections so
// concurrent calls overlap for real.
func setupPooledStore(t *testing.T, opts ...repository.StoreOption) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLitePool(filepath.Join(t.TempDir(), "services.db"), 8)
	require.NoError(t, err)
	return migrate(t, db, opts...)
}

func migrate(t *testing.T, db *gorm.DB, opts ...repository.StoreOption) *repository.Store {
	t.Helper()
	require.NoError(t, db.AutoMigrate(database.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewStore(db, opts...)
}

func seedCategory(t *testing.T, store *repository.Store, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Slug: models.Slugify(name), IsActive: true}
	require.NoError(t, store.Categories.Create(context.Background(), category))
	return category
}

func seedDish(t *testing.T, store *repository.Store, category *models.Category, name string, priceCents int64, stock int) *models.Dish {
	t.Helper()
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
	require.NoError(t, store.Dishes.Create(context.Background(), dish))
	return dish
}

func seedUser(t *testing.T, store *repository.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users.CreateUser(context.Background(), user))
	return user
}

func stockOf(t *testing.T, store *repository.Store, dishID uuid.UUID) int {
	t.Helper()
	n, err := store.Stock.Available(context.Background(), dishID)
	require.NoError(t, err)
	return n
}

func countOrders(t *testing.T, store *repository.Store) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB().Model(&models.Order{}).Count(&n).Error)
	return n
}

type notification struct {
	UserID  uuid.UUID
	Staff   bool
	Title   string
	Message string
	Kind    models.NotificationType
}

// recordingNotifier captures notifications synchronously.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, title, message string, kind models.NotificationType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{UserID: userID, Title: title, Message: message, Kind: kind})
}

func (n *recordingNotifier) NotifyStaff(_ context.Context, title, message string, kind models.NotificationType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{Staff: true, Title: title, Message: message, Kind: kind})
}

func (n *recordingNotifier) messages(kind models.NotificationType) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.Kind == kind {
			out = append(out, s.Message)
		}
	}
	return out
}

func (n *recordingNotifier) kinds() []models.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.NotificationType, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

const testWebhookSecret = "whsec_test_secret"

// fakeGateway serves checkout sessions from memory and verifies webhooks
// with the real Stripe signature check.
type fakeGateway struct {
	*services.StripeGateway

	mu       sync.Mutex
	seq      int
	sessions map[string]*services.GatewaySession
	created  []services.CheckoutSessionParams
	getErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		StripeGateway: services.NewStripeGateway("sk_test_unused", testWebhookSecret, 0),
		sessions:      map[string]*services.GatewaySession{},
	}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p services.CheckoutSessionParams) (*services.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("cs_test_%d", g.seq)
	total := p.DeliveryFeeCents
	for _, line := range p.Lines {
		total += line.UnitPriceCents * int64(line.Quantity)
	}
	sess := &services.GatewaySession{
		ID:            id,
		URL:           "https://checkout.stripe.com/c/pay/" + id,
		PaymentStatus: string(stripe.CheckoutSessionPaymentStatusUnpaid),
		AmountTotal:   total,
		Metadata:      p.Metadata,
	}
	g.sessions[id] = sess
	g.created = append(g.created, p)
	return sess, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*services.GatewaySession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	sess, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", id)
	}
	cp := *sess
	return &cp, nil
}

func (g *fakeGateway) pay(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].PaymentStatus = string(stripe.CheckoutSessionPaymentStatusPaid)
}

type serviceEnv struct {
	store    *repository.Store
	notifier *recordingNotifier
	gateway  *fakeGateway
	orders   *services.OrderService
	payments *services.PaymentService
}

func newServiceEnv(t *testing.T, opts ...repository.StoreOption) *serviceEnv {
	t.Helper()
	store := setupPooledStore(t, opts...)
	notifier := &recordingNotifier{}
	gateway := newFakeGateway()
	logger := zap.NewNop()
	orders := services.NewOrderService(services.OrderServiceDeps{
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
	})
	payments := services.NewPaymentService(store, gateway, orders, notifier, nil, services.PaymentConfig{
		Currency:         "usd",
		SuccessURL:       "http://localhost/api/stripe/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:        "http://localhost/api/stripe/cancel",
		PublishableKey:   "pk_test_123",
		DeliveryFeeCents: 399,
	}, logger)
	return &serviceEnv{store: store, notifier: notifier, gateway: gateway, orders: orders, payments: payments}
}
