package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/events"
	"github.com/yashrajoria/restaurant-backend/models"
	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
	"github.com/yashrajoria/restaurant-backend/repository"
)

// OrderService places orders against live stock and manages their
// lifecycle.
type OrderService struct {
	store    *repository.Store
	notifier Notifier
	emitter  *events.Emitter
	cache    PopularCache
	metrics  *Metrics
	logger   *zap.Logger
}

type OrderServiceDeps struct {
	Store    *repository.Store
	Notifier Notifier
	Emitter  *events.Emitter
	Cache    PopularCache
	Metrics  *Metrics
	Logger   *zap.Logger
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	if deps.Cache == nil {
		deps.Cache = NoopPopularCache{}
	}
	if deps.Emitter == nil {
		deps.Emitter = events.NewEmitter(nil, deps.Logger)
	}
	return &OrderService{
		store:    deps.Store,
		notifier: deps.Notifier,
		emitter:  deps.Emitter,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// PlaceOrder validates the request, then creates the order, reserves stock
// and records the items in one transaction. Nothing is persisted when any
// step fails. Direct orders carry no delivery fee; only hosted checkout
// charges one.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req models.PlaceOrderRequest) (*models.Order, error) {
	log := logger.For(ctx, s.logger)

	lines, _, err := validateCart(ctx, s.store.Dishes, req.Items)
	if err != nil {
		s.metrics.Count(ctx, aws_pkg.MetricOrdersRejected, nil)
		return nil, err
	}

	customer, err := s.store.Users.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load customer", err)
	}

	order := &models.Order{
		CustomerID:          customer.ID,
		Status:              models.OrderStatusPending,
		PaymentStatus:       models.PaymentStatusPending,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
	}

	var lowStock []models.Dish
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		low, err := materialize(ctx, tx, order, lines)
		lowStock = low
		return err
	})
	if err != nil {
		s.metrics.Count(ctx, aws_pkg.MetricOrdersRejected, nil)
		if apperrors.IsKind(err, apperrors.KindInternal) || !isAppError(err) {
			log.Error("Failed to place order", zap.String("customer_id", customer.ID.String()), zap.Error(err))
			return nil, apperrors.From(err)
		}
		log.Info("Order rejected", zap.String("customer_id", customer.ID.String()), zap.Error(err))
		return nil, err
	}

	log.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int64("total_cents", order.TotalAmountCents),
		zap.Int("items", len(order.Items)),
	)

	s.afterOrderCreated(ctx, userID, order, lowStock, events.OrderPlaced)
	return s.reload(ctx, order)
}

func isAppError(err error) bool {
	var appErr *apperrors.Error
	return errors.As(err, &appErr)
}

// afterOrderCreated runs the side effects of a committed order. None of
// them can fail the request.
func (s *OrderService) afterOrderCreated(ctx context.Context, userID uuid.UUID, order *models.Order, lowStock []models.Dish, eventType string) {
	total := toAmount(order.TotalAmountCents)
	short := order.ID.String()[:8]

	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, "Order Received",
			fmt.Sprintf("Your order #%s has been received. Total: %.2f", short, total),
			models.NotificationOrderPlaced)
		s.notifier.NotifyStaff(ctx, "New Order Alert",
			fmt.Sprintf("New order #%s received. Total: %.2f", short, total),
			models.NotificationOrderPlaced)
		for _, dish := range lowStock {
			s.notifier.NotifyStaff(ctx, "Low Stock Alert",
				fmt.Sprintf("'%s' is running low: %d left", dish.Name, dish.StockQuantity),
				models.NotificationStockLow)
		}
	}

	sessionID := ""
	if order.StripeSessionID != nil {
		sessionID = *order.StripeSessionID
	}
	s.emitter.Emit(ctx, events.Event{
		Type:            eventType,
		OrderID:         order.ID.String(),
		CustomerID:      order.CustomerID.String(),
		Status:          string(order.Status),
		TotalCents:      order.TotalAmountCents,
		StripeSessionID: sessionID,
	})

	s.metrics.Count(ctx, aws_pkg.MetricOrdersCreated, nil)
	s.metrics.Value(ctx, aws_pkg.MetricInventoryReserved, float64(countUnits(order.Items)), nil)
	for _, dish := range lowStock {
		s.metrics.Count(ctx, aws_pkg.MetricInventoryLow, map[string]string{"DishID": dish.ID.String()})
	}
	s.cache.Invalidate(ctx)
}

func countUnits(items []models.OrderItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func (s *OrderService) reload(ctx context.Context, order *models.Order) (*models.Order, error) {
	fresh, err := s.store.Orders.FindByID(ctx, order.ID)
	if err != nil {
		return order, nil
	}
	return fresh, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, page, perPage int) (*models.Paginated[models.Order], error) {
	customer, err := s.store.Users.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load customer", err)
	}
	orders, total, err := s.store.Orders.ListByCustomer(ctx, customer.ID, page, perPage)
	if err != nil {
		return nil, apperrors.Internal("Failed to load orders", err)
	}
	return &models.Paginated[models.Order]{Results: orders, Count: total, Page: page, PerPage: perPage}, nil
}

// GetMine returns one of the caller's orders. Orders of other customers are
// reported as missing.
func (s *OrderService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	customer, err := s.store.Users.FindCustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to load customer", err)
	}
	order, err := s.store.Orders.FindForCustomer(ctx, orderID, customer.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to load order", err)
	}
	return order, nil
}

func (s *OrderService) ListAll(ctx context.Context, status models.OrderStatus, page, perPage int) (*models.Paginated[models.Order], error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.ErrInvalidStatus.With("status", string(status))
	}
	orders, total, err := s.store.Orders.ListAll(ctx, status, page, perPage)
	if err != nil {
		return nil, apperrors.Internal("Failed to load orders", err)
	}
	return &models.Paginated[models.Order]{Results: orders, Count: total, Page: page, PerPage: perPage}, nil
}

var statusNotifications = map[models.OrderStatus]struct {
	kind  models.NotificationType
	title string
	text  string
}{
	models.OrderStatusConfirmed: {models.NotificationOrderConfirmed, "Order Confirmed", "Your order #%s has been confirmed"},
	models.OrderStatusPreparing: {models.NotificationOrderPreparing, "Order Being Prepared", "Your order #%s is being prepared"},
	models.OrderStatusReady:     {models.NotificationOrderReady, "Order Ready", "Your order #%s is ready"},
	models.OrderStatusDelivered: {models.NotificationOrderDelivered, "Order Delivered", "Your order #%s has been delivered"},
	models.OrderStatusCancelled: {models.NotificationOrderCancelled, "Order Cancelled", "Your order #%s has been cancelled"},
}

// UpdateStatus moves an order to status and tells its customer.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus.With("status", string(status))
	}

	var deliveredAt *time.Time
	if status == models.OrderStatusDelivered {
		now := time.Now()
		deliveredAt = &now
	}
	if err := s.store.Orders.UpdateStatus(ctx, orderID, status, deliveredAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to update order status", err)
	}

	order, err := s.store.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order", err)
	}
	logger.For(ctx, s.logger).Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(status)),
	)

	if n, ok := statusNotifications[status]; ok && s.notifier != nil {
		if customer, err := s.store.Users.FindCustomerByID(ctx, order.CustomerID); err == nil {
			s.notifier.Notify(ctx, customer.UserID, n.title, fmt.Sprintf(n.text, orderID.String()[:8]), n.kind)
		}
	}
	s.emitter.Emit(ctx, events.Event{
		Type:       events.OrderStatusChanged,
		OrderID:    order.ID.String(),
		CustomerID: order.CustomerID.String(),
		Status:     string(status),
		TotalCents: order.TotalAmountCents,
	})
	return order, nil
}

func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.store.Orders.Stats(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load order stats", err)
	}
	return stats, nil
}

func (s *OrderService) CustomerStats(ctx context.Context) (*models.CustomerStats, error) {
	stats, err := s.store.Users.CustomerStats(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load customer stats", err)
	}
	return stats, nil
}
