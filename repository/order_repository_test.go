package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/restaurant-backend/models"
	"github.com/yashrajoria/restaurant-backend/repository"
)

func TestOrderCreate_InsertsOrderRowOnly(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	order := &models.Order{
		CustomerID:      uuid.New(),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: "1 Main St",
		Items:           []models.OrderItem{{DishID: uuid.New(), Quantity: 1, PriceCents: 100}},
	}
	require.NoError(t, repo.Create(context.Background(), order))
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByStripeSession_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE stripe_session_id = $1`)).
		WithArgs("cs_test_missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	order, err := repo.FindByStripeSession(context.Background(), "cs_test_missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, order)
}

func TestOrderCreate_DuplicateStripeSession(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	_, customer := seedCustomer(t, store, "alice")
	session := "cs_test_dup"

	first := &models.Order{CustomerID: customer.ID, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPaid, DeliveryAddress: "x", StripeSessionID: &session}
	require.NoError(t, store.Orders.Create(ctx, first))

	second := &models.Order{CustomerID: customer.ID, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPaid, DeliveryAddress: "x", StripeSessionID: &session}
	assert.ErrorIs(t, store.Orders.Create(ctx, second), repository.ErrDuplicate)

	// Orders without a session do not collide with each other.
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Orders.Create(ctx, &models.Order{CustomerID: customer.ID, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending, DeliveryAddress: "x"}))
	}

	found, err := store.Orders.FindByStripeSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestOrderListingAndStats(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	_, alice := seedCustomer(t, store, "alice")
	_, bob := seedCustomer(t, store, "bob")
	seedCustomer(t, store, "carol")
	dish := seedDish(t, store, "Margherita", 8500, 10)

	place := func(customerID uuid.UUID, payment models.PaymentStatus, qty int) *models.Order {
		o := &models.Order{CustomerID: customerID, Status: models.OrderStatusPending, PaymentStatus: payment, DeliveryAddress: "x"}
		require.NoError(t, store.Orders.Create(ctx, o))
		items := []models.OrderItem{{OrderID: o.ID, DishID: dish.ID, Quantity: qty, PriceCents: dish.PriceCents}}
		require.NoError(t, store.Orders.CreateItems(ctx, items))
		require.NoError(t, store.Orders.SetTotal(ctx, o.ID, items[0].TotalPriceCents()))
		return o
	}
	first := place(alice.ID, models.PaymentStatusPaid, 3)
	time.Sleep(10 * time.Millisecond)
	second := place(alice.ID, models.PaymentStatusPending, 1)
	place(bob.ID, models.PaymentStatusPaid, 2)

	orders, total, err := store.Orders.ListByCustomer(ctx, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "Margherita", orders[1].Items[0].Dish.Name)

	delivered := time.Now()
	require.NoError(t, store.Orders.UpdateStatus(ctx, first.ID, models.OrderStatusDelivered, &delivered))
	assert.ErrorIs(t, store.Orders.UpdateStatus(ctx, uuid.New(), models.OrderStatusReady, nil), repository.ErrNotFound)

	stats, err := store.Orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.DeliveredOrders)
	assert.Equal(t, int64(25500+17000), stats.RevenueCents)
	assert.Equal(t, []models.StatusCount{
		{Status: models.OrderStatusDelivered, Count: 1},
		{Status: models.OrderStatusPending, Count: 2},
	}, stats.ByStatus)

	customers, err := store.Users.CustomerStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), customers.TotalCustomers)
	assert.Equal(t, int64(2), customers.CustomersWithOrders)

	got, err := store.Orders.FindForCustomer(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Nil(t, got)
}

func TestCheckoutMarkStatus_KeepsCompletedSessions(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()
	_, customer := seedCustomer(t, store, "alice")

	session := &models.CheckoutSession{
		StripeSessionID: "cs_test_1",
		CustomerID:      customer.ID,
		Items:           []models.CartLine{{DishID: uuid.New(), DishName: "Margherita", Quantity: 2, UnitPriceCents: 8500}},
		DeliveryAddress: "x",
		ItemsTotalCents: 17000,
		Status:          models.CheckoutStatusCreated,
	}
	require.NoError(t, store.Checkouts.Create(ctx, session))

	orderID := uuid.New()
	require.NoError(t, store.Checkouts.MarkCompleted(ctx, "cs_test_1", orderID))
	require.NoError(t, store.Checkouts.MarkStatus(ctx, "cs_test_1", models.CheckoutStatusExpired, "expired"))

	found, err := store.Checkouts.FindByStripeSession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusCompleted, found.Status)
	require.NotNil(t, found.OrderID)
	assert.Equal(t, orderID, *found.OrderID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(8500), found.Items[0].UnitPriceCents)
}
