package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

func signedEvent(eventType stripe.EventType, sessionID, paymentStatus string) ([]byte, string) {
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_%s","object":"event","type":"%s","data":{"object":{"id":"%s","object":"checkout.session","payment_status":"%s"}}}`,
		uuid.NewString(), eventType, sessionID, paymentStatus,
	))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: testWebhookSecret})
	return payload, signed.Header
}

type checkoutFixture struct {
	env       *serviceEnv
	dish      *models.Dish
	user      *models.User
	sessionID string
}

func newCheckout(t *testing.T, qty int, opts ...repository.StoreOption) *checkoutFixture {
	t.Helper()
	env := newServiceEnv(t, opts...)
	category := seedCategory(t, env.store, "Pizza")
	dish := seedDish(t, env.store, category, "Margherita", 8500, 10)
	user := seedUser(t, env.store, "paula")

	resp, err := env.payments.CreateCheckout(context.Background(), user.ID, user.Email, models.CheckoutRequest{
		DeliveryAddress: "1 Main St",
		Items:           []models.OrderItemRequest{{DishID: dish.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	return &checkoutFixture{env: env, dish: dish, user: user, sessionID: resp.SessionID}
}

func TestCreateCheckout_RequiresIdentity(t *testing.T) {
	env := newServiceEnv(t)
	_, err := env.payments.CreateCheckout(context.Background(), uuid.Nil, "", models.CheckoutRequest{})
	assert.True(t, errors.Is(err, apperrors.ErrAuthRequired))
}

func TestCreateCheckout_KeepsCartWithoutReservingStock(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()
	category := seedCategory(t, env.store, "Pizza")
	dish := seedDish(t, env.store, category, "Margherita", 8500, 10)
	user := seedUser(t, env.store, "quinn")

	resp, err := env.payments.CreateCheckout(ctx, user.ID, user.Email, models.CheckoutRequest{
		DeliveryAddress: "1 Main St",
		Items:           []models.OrderItemRequest{{DishID: dish.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 258.99, resp.TotalAmount)
	assert.NotEmpty(t, resp.CheckoutURL)

	require.Len(t, env.gateway.created, 1)
	params := env.gateway.created[0]
	assert.Equal(t, int64(399), params.DeliveryFeeCents)
	assert.Equal(t, user.Email, params.CustomerEmail)
	for _, key := range []string{"checkout_id", "customer_id", "user_id", "user_email"} {
		assert.Contains(t, params.Metadata, key)
	}

	checkout, err := env.store.Checkouts.FindByStripeSession(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusCreated, checkout.Status)
	require.Len(t, checkout.Items, 1)
	assert.Equal(t, int64(8500), checkout.Items[0].UnitPriceCents)

	assert.Equal(t, 10, stockOf(t, env.store, dish.ID))
	assert.Equal(t, int64(0), countOrders(t, env.store))
}

func TestCreateCheckout_RejectsInvalidCart(t *testing.T) {
	env := newServiceEnv(t)
	category := seedCategory(t, env.store, "Pizza")
	dish := seedDish(t, env.store, category, "Diavola", 9000, 2)
	user := seedUser(t, env.store, "rick")

	_, err := env.payments.CreateCheckout(context.Background(), user.ID, user.Email, models.CheckoutRequest{
		DeliveryAddress: "1 Main St",
		Items:           []models.OrderItemRequest{{DishID: dish.ID, Quantity: 3}},
	})
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
	assert.Empty(t, env.gateway.created)
}

func TestWebhook_DuplicateDeliveryCreatesOneOrder(t *testing.T) {
	f := newCheckout(t, 3)
	ctx := context.Background()
	f.env.gateway.pay(f.sessionID)

	for i := 0; i < 2; i++ {
		payload, sig := signedEvent(stripe.EventTypeCheckoutSessionCompleted, f.sessionID, "paid")
		require.NoError(t, f.env.payments.HandleWebhook(ctx, payload, sig))
	}

	assert.Equal(t, int64(1), countOrders(t, f.env.store))
	assert.Equal(t, 7, stockOf(t, f.env.store, f.dish.ID))

	order, err := f.env.store.Orders.FindByStripeSession(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, int64(25500), order.TotalAmountCents)

	checkout, err := f.env.store.Checkouts.FindByStripeSession(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusCompleted, checkout.Status)
	require.NotNil(t, checkout.OrderID)
	assert.Equal(t, order.ID, *checkout.OrderID)
}

func TestWebhookThenRedirect_CreatesOneOrder(t *testing.T) {
	f := newCheckout(t, 2)
	ctx := context.Background()
	f.env.gateway.pay(f.sessionID)

	payload, sig := signedEvent(stripe.EventTypeCheckoutSessionCompleted, f.sessionID, "paid")
	require.NoError(t, f.env.payments.HandleWebhook(ctx, payload, sig))

	confirmation, err := f.env.payments.ConfirmRedirect(ctx, f.sessionID, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 173.99, confirmation.TotalAmount)

	order, err := f.env.store.Orders.FindByStripeSession(ctx, f.sessionID)
	require.NoError(t, err)
	require.NotNil(t, confirmation.OrderID)
	assert.Equal(t, order.ID, *confirmation.OrderID)
	assert.Equal(t, int64(1), countOrders(t, f.env.store))
	assert.Equal(t, 8, stockOf(t, f.env.store, f.dish.ID))
}

func TestConcurrentReconcile_CreatesOneOrder(t *testing.T) {
	f := newCheckout(t, 1)
	ctx := context.Background()

	const workers = 4
	start := make(chan struct{})
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			order, err := f.env.payments.Reconcile(ctx, f.sessionID)
			errs[i] = err
			if err == nil {
				ids[i] = order.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), countOrders(t, f.env.store))
	assert.Equal(t, 9, stockOf(t, f.env.store, f.dish.ID))
}

// staleOrders misses the order of a session once when armed, the way a
// reconciliation that read before a concurrent one committed would.
type staleOrders struct {
	repository.OrderRepository
	armed *atomic.Bool
}

func (r *staleOrders) FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error) {
	if r.armed.CompareAndSwap(true, false) {
		return nil, repository.ErrNotFound
	}
	return r.OrderRepository.FindByStripeSession(ctx, sessionID)
}

func TestReconcile_LosingRaceReturnsWinner(t *testing.T) {
	armed := &atomic.Bool{}
	f := newCheckout(t, 2, repository.WrapOrders(func(inner repository.OrderRepository) repository.OrderRepository {
		return &staleOrders{OrderRepository: inner, armed: armed}
	}))
	ctx := context.Background()

	winner, err := f.env.payments.Reconcile(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, 8, stockOf(t, f.env.store, f.dish.ID))

	armed.Store(true)
	got, err := f.env.payments.Reconcile(ctx, f.sessionID)
	require.NoError(t, err)
	assert.False(t, armed.Load())
	assert.Equal(t, winner.ID, got.ID)

	assert.Equal(t, int64(1), countOrders(t, f.env.store))
	assert.Equal(t, 8, stockOf(t, f.env.store, f.dish.ID))
	checkout, err := f.env.store.Checkouts.FindByStripeSession(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusCompleted, checkout.Status)
	assert.NotContains(t, f.env.notifier.kinds(), models.NotificationReconciliationFailed)
}

func TestWebhook_InvalidSignatureChangesNothing(t *testing.T) {
	f := newCheckout(t, 3)
	f.env.gateway.pay(f.sessionID)

	payload, _ := signedEvent(stripe.EventTypeCheckoutSessionCompleted, f.sessionID, "paid")
	err := f.env.payments.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidSignature))
	assert.Equal(t, 400, apperrors.From(err).Code)

	assert.Equal(t, int64(0), countOrders(t, f.env.store))
	assert.Equal(t, 10, stockOf(t, f.env.store, f.dish.ID))
}

func TestConfirmRedirect_HidesOrderFromOtherCallers(t *testing.T) {
	f := newCheckout(t, 2)
	ctx := context.Background()
	f.env.gateway.pay(f.sessionID)
	stranger := seedUser(t, f.env.store, "mallory")
	_, err := f.env.store.Users.GetOrCreateCustomer(ctx, stranger.ID)
	require.NoError(t, err)

	for name, userID := range map[string]uuid.UUID{"anonymous": uuid.Nil, "other customer": stranger.ID} {
		t.Run(name, func(t *testing.T) {
			confirmation, err := f.env.payments.ConfirmRedirect(ctx, f.sessionID, userID)
			require.NoError(t, err)
			assert.NotEmpty(t, confirmation.Message)
			assert.Nil(t, confirmation.OrderID)
			assert.Zero(t, confirmation.TotalAmount)
		})
	}

	assert.Equal(t, int64(1), countOrders(t, f.env.store))
	confirmation, err := f.env.payments.ConfirmRedirect(ctx, f.sessionID, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, confirmation.OrderID)
	assert.Equal(t, 173.99, confirmation.TotalAmount)
}

func TestConfirmRedirect_UnpaidSession(t *testing.T) {
	f := newCheckout(t, 1)

	_, err := f.env.payments.ConfirmRedirect(context.Background(), f.sessionID, f.user.ID)
	assert.True(t, errors.Is(err, apperrors.ErrPaymentIncomplete))
	assert.Equal(t, int64(0), countOrders(t, f.env.store))
}

func TestConfirmRedirect_GatewayFailure(t *testing.T) {
	f := newCheckout(t, 1)
	f.env.gateway.getErr = errors.New("connection reset")

	_, err := f.env.payments.ConfirmRedirect(context.Background(), f.sessionID, f.user.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindExternal))
}

func TestReconcile_StockGoneMarksSessionFailed(t *testing.T) {
	f := newCheckout(t, 3)
	ctx := context.Background()
	f.dish.StockQuantity = 1
	require.NoError(t, f.env.store.Dishes.Update(ctx, f.dish))
	f.env.gateway.pay(f.sessionID)

	payload, sig := signedEvent(stripe.EventTypeCheckoutSessionCompleted, f.sessionID, "paid")
	require.NoError(t, f.env.payments.HandleWebhook(ctx, payload, sig))

	assert.Equal(t, int64(0), countOrders(t, f.env.store))
	assert.Equal(t, 1, stockOf(t, f.env.store, f.dish.ID))

	checkout, err := f.env.store.Checkouts.FindByStripeSession(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusFailed, checkout.Status)
	assert.NotEmpty(t, checkout.FailureReason)
	assert.Contains(t, f.env.notifier.kinds(), models.NotificationReconciliationFailed)

	_, err = f.env.payments.ConfirmRedirect(ctx, f.sessionID, f.user.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientStock))
}

func TestReconcile_UnknownSession(t *testing.T) {
	env := newServiceEnv(t)
	_, err := env.payments.Reconcile(context.Background(), "cs_test_missing")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestWebhook_ExpiredAndIgnoredEvents(t *testing.T) {
	f := newCheckout(t, 1)
	ctx := context.Background()

	payload, sig := signedEvent("customer.created", f.sessionID, "unpaid")
	require.NoError(t, f.env.payments.HandleWebhook(ctx, payload, sig))

	payload, sig = signedEvent(stripe.EventTypeCheckoutSessionCompleted, f.sessionID, "unpaid")
	require.NoError(t, f.env.payments.HandleWebhook(ctx, payload, sig))
	assert.Equal(t, int64(0), countOrders(t, f.env.store))

	payload, sig = signedEvent(stripe.EventTypeCheckoutSessionExpired, f.sessionID, "unpaid")
	require.NoError(t, f.env.payments.HandleWebhook(ctx, payload, sig))

	checkout, err := f.env.store.Checkouts.FindByStripeSession(ctx, f.sessionID)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusExpired, checkout.Status)
	assert.Equal(t, int64(0), countOrders(t, f.env.store))
}

func TestPublishableKey(t *testing.T) {
	env := newServiceEnv(t)
	key, err := env.payments.PublishableKey()
	require.NoError(t, err)
	assert.Equal(t, "pk_test_123", key)
}
