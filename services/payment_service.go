package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/events"
	"github.com/yashrajoria/restaurant-backend/models"
	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
	"github.com/yashrajoria/restaurant-backend/repository"
)

const paymentStatusPaid = string(stripe.CheckoutSessionPaymentStatusPaid)

type PaymentConfig struct {
	Currency         string
	SuccessURL       string
	CancelURL        string
	PublishableKey   string
	DeliveryFeeCents int64
}

// PaymentService runs hosted checkout and turns completed payments into
// orders. Every completed session yields at most one order, whichever of
// the webhook or the success redirect arrives first.
type PaymentService struct {
	store    *repository.Store
	gateway  PaymentGateway
	orders   *OrderService
	notifier Notifier
	metrics  *Metrics
	cfg      PaymentConfig
	logger   *zap.Logger
}

func NewPaymentService(store *repository.Store, gateway PaymentGateway, orders *OrderService, notifier Notifier, metrics *Metrics, cfg PaymentConfig, logger *zap.Logger) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		orders:   orders,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateCheckout validates the cart like PlaceOrder, opens a hosted
// payment session for it and keeps the cart until the payment completes.
// Stock is not touched here.
func (s *PaymentService) CreateCheckout(ctx context.Context, userID uuid.UUID, email string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if userID == uuid.Nil {
		return nil, apperrors.ErrAuthRequired
	}
	log := logger.For(ctx, s.logger)

	lines, itemsTotal, err := validateCart(ctx, s.store.Dishes, req.Items)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.Users.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load customer", err)
	}

	checkoutID := uuid.New()
	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutSessionParams{
		CustomerEmail:    email,
		Lines:            lines,
		DeliveryFeeCents: s.cfg.DeliveryFeeCents,
		Currency:         s.cfg.Currency,
		SuccessURL:       s.cfg.SuccessURL,
		CancelURL:        s.cfg.CancelURL,
		Metadata: map[string]string{
			"checkout_id": checkoutID.String(),
			"customer_id": customer.ID.String(),
			"user_id":     userID.String(),
			"user_email":  email,
		},
	})
	if err != nil {
		log.Error("Failed to create Stripe checkout session", zap.String("customer_id", customer.ID.String()), zap.Error(err))
		return nil, apperrors.External("Failed to create checkout session", err)
	}

	checkout := &models.CheckoutSession{
		ID:                  checkoutID,
		StripeSessionID:     session.ID,
		CustomerID:          customer.ID,
		Items:               lines,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		ItemsTotalCents:     itemsTotal,
		DeliveryFeeCents:    s.cfg.DeliveryFeeCents,
		Status:              models.CheckoutStatusCreated,
	}
	if err := s.store.Checkouts.Create(ctx, checkout); err != nil {
		log.Error("Failed to store checkout session", zap.String("stripe_session_id", session.ID), zap.Error(err))
		return nil, apperrors.Internal("Failed to create checkout session", err)
	}

	log.Info("Checkout session created",
		zap.String("stripe_session_id", session.ID),
		zap.String("customer_id", customer.ID.String()),
		zap.Int64("items_total_cents", itemsTotal),
	)
	s.metrics.Count(ctx, aws_pkg.MetricCheckoutsStarted, nil)

	return &models.CheckoutResponse{
		CheckoutURL: session.URL,
		SessionID:   session.ID,
		TotalAmount: toAmount(itemsTotal + s.cfg.DeliveryFeeCents),
	}, nil
}

// Reconcile materializes the order for a paid checkout session. Calling it
// again for the same session returns the order created the first time.
func (s *PaymentService) Reconcile(ctx context.Context, stripeSessionID string) (*models.Order, error) {
	log := logger.For(ctx, s.logger).With(zap.String("stripe_session_id", stripeSessionID))

	var (
		existing *models.Order
		checkout *models.CheckoutSession
		order    *models.Order
		lowStock []models.Dish
	)
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		found, err := tx.Orders.FindByStripeSession(ctx, stripeSessionID)
		if err == nil {
			existing = found
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		checkout, err = tx.Checkouts.FindByStripeSession(ctx, stripeSessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound("Checkout session not found").With("session_id", stripeSessionID)
			}
			return err
		}

		sid := stripeSessionID
		order = &models.Order{
			CustomerID:          checkout.CustomerID,
			Status:              models.OrderStatusPending,
			PaymentStatus:       models.PaymentStatusPaid,
			DeliveryFeeCents:    checkout.DeliveryFeeCents,
			DeliveryAddress:     checkout.DeliveryAddress,
			SpecialInstructions: checkout.SpecialInstructions,
			StripeSessionID:     &sid,
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		low, err := materialize(ctx, tx, order, checkout.Items)
		if err != nil {
			return err
		}
		lowStock = low
		return tx.Checkouts.MarkCompleted(ctx, stripeSessionID, order.ID)
	})

	switch {
	case err == nil && existing != nil:
		log.Info("Checkout session already reconciled", zap.String("order_id", existing.ID.String()))
		return existing, nil
	case errors.Is(err, repository.ErrDuplicate):
		winner, findErr := s.store.Orders.FindByStripeSession(ctx, stripeSessionID)
		if findErr != nil {
			return nil, apperrors.Internal("Failed to load order", findErr)
		}
		log.Info("Concurrent reconciliation already created the order", zap.String("order_id", winner.ID.String()))
		return winner, nil
	case err != nil:
		s.reconciliationFailed(ctx, stripeSessionID, err)
		return nil, apperrors.From(err)
	}

	log.Info("Order created from checkout session",
		zap.String("order_id", order.ID.String()),
		zap.Int64("total_cents", order.TotalAmountCents),
	)

	customer, err := s.store.Users.FindCustomerByID(ctx, checkout.CustomerID)
	if err != nil {
		log.Warn("Failed to load customer for notifications", zap.Error(err))
	} else {
		s.orders.afterOrderCreated(ctx, customer.UserID, order, lowStock, events.PaymentSucceeded)
	}
	s.metrics.Count(ctx, aws_pkg.MetricPaymentSucceeded, nil)
	return s.orders.reload(ctx, order)
}

func (s *PaymentService) reconciliationFailed(ctx context.Context, stripeSessionID string, cause error) {
	log := logger.For(ctx, s.logger)
	log.Error("Failed to reconcile checkout session", zap.String("stripe_session_id", stripeSessionID), zap.Error(cause))

	reason := apperrors.From(cause).Message
	if err := s.store.Checkouts.MarkStatus(ctx, stripeSessionID, models.CheckoutStatusFailed, reason); err != nil {
		log.Warn("Failed to mark checkout session failed", zap.String("stripe_session_id", stripeSessionID), zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.NotifyStaff(ctx, "Payment Reconciliation Failed",
			"Paid checkout session "+stripeSessionID+" could not be turned into an order: "+reason,
			models.NotificationReconciliationFailed)
	}
	s.metrics.Count(ctx, aws_pkg.MetricReconciliationFailed, nil)
}

// ConfirmRedirect handles the customer returning from the hosted payment
// page. The order is reconciled for any caller, but its id and total are
// only reported to the user whose customer placed it.
func (s *PaymentService) ConfirmRedirect(ctx context.Context, stripeSessionID string, userID uuid.UUID) (*models.PaymentConfirmation, error) {
	if stripeSessionID == "" {
		return nil, apperrors.Validation("Missing session_id")
	}

	session, err := s.gateway.GetCheckoutSession(ctx, stripeSessionID)
	if err != nil {
		logger.For(ctx, s.logger).Error("Failed to retrieve Stripe checkout session",
			zap.String("stripe_session_id", stripeSessionID), zap.Error(err))
		return nil, apperrors.External("Failed to verify payment", err)
	}
	if session.PaymentStatus != paymentStatusPaid {
		return nil, apperrors.ErrPaymentIncomplete.With("payment_status", session.PaymentStatus)
	}

	order, err := s.Reconcile(ctx, stripeSessionID)
	if err != nil {
		return nil, err
	}
	confirmation := &models.PaymentConfirmation{Message: "Payment successful! Your order has been placed."}
	if !s.ownsOrder(ctx, userID, order) {
		return confirmation, nil
	}
	confirmation.OrderID = &order.ID
	confirmation.TotalAmount = toAmount(order.GrandTotalCents())
	return confirmation, nil
}

func (s *PaymentService) ownsOrder(ctx context.Context, userID uuid.UUID, order *models.Order) bool {
	if userID == uuid.Nil {
		return false
	}
	customer, err := s.store.Users.FindCustomerByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.For(ctx, s.logger).Warn("Failed to load customer for payment confirmation", zap.Error(err))
		}
		return false
	}
	return customer.ID == order.CustomerID
}

// HandleWebhook verifies and dispatches a Stripe event. Only a bad
// signature or an undecodable payload is reported back; reconciliation
// faults are logged and the event is still acknowledged.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := logger.For(ctx, s.logger)

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.Warn("Stripe webhook signature verification failed", zap.Error(err))
		return apperrors.ErrInvalidSignature
	}

	log.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			log.Info("Checkout session completed without payment", zap.String("stripe_session_id", session.ID),
				zap.String("payment_status", string(session.PaymentStatus)))
			return nil
		}
		if _, err := s.Reconcile(ctx, session.ID); err != nil {
			log.Error("Webhook reconciliation failed", zap.String("stripe_session_id", session.ID), zap.Error(err))
		}
	case stripe.EventTypeCheckoutSessionExpired:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		s.markSession(ctx, session.ID, models.CheckoutStatusExpired, "Checkout session expired")
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		session, err := decodeSession(event)
		if err != nil {
			return err
		}
		s.markSession(ctx, session.ID, models.CheckoutStatusFailed, "Payment failed")
	default:
		log.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}
	return nil
}

func decodeSession(event stripe.Event) (*stripe.CheckoutSession, error) {
	var session stripe.CheckoutSession
	if event.Data == nil {
		return nil, apperrors.Validation("Webhook event has no data")
	}
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil || session.ID == "" {
		return nil, apperrors.Validation("Invalid checkout session payload")
	}
	return &session, nil
}

func (s *PaymentService) markSession(ctx context.Context, stripeSessionID string, status models.CheckoutStatus, reason string) {
	if err := s.store.Checkouts.MarkStatus(ctx, stripeSessionID, status, reason); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to update checkout session",
			zap.String("stripe_session_id", stripeSessionID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}
	logger.For(ctx, s.logger).Info("Checkout session closed",
		zap.String("stripe_session_id", stripeSessionID),
		zap.String("status", string(status)),
	)
}

// PublishableKey is handed to the frontend to initialise Stripe.js.
func (s *PaymentService) PublishableKey() (string, error) {
	if s.cfg.PublishableKey == "" {
		return "", apperrors.Internal("Stripe publishable key is not configured", nil)
	}
	return s.cfg.PublishableKey, nil
}
