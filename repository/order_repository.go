package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines data access for orders and their items.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	SetTotal(ctx context.Context, orderID uuid.UUID, totalCents int64) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error)
	FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, page, perPage int) ([]models.Order, int64, error)
	ListAll(ctx context.Context, status models.OrderStatus, page, perPage int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, deliveredAt *time.Time) error
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	Window(ctx context.Context, from, to time.Time) (*models.OrderWindow, error)
	AverageOrderValueCents(ctx context.Context) (float64, error)
	ActiveCustomers(ctx context.Context, since time.Time) (int64, error)
	DishesServed(ctx context.Context, from, to time.Time) (int64, error)
	TopDishes(ctx context.Context, limit int) ([]models.TopDish, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order row only. A second order for the same Stripe
// session fails with ErrDuplicate.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

func (r *GormOrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *GormOrderRepository) SetTotal(ctx context.Context, orderID uuid.UUID, totalCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_amount_cents", totalCents).Error
}

func (r *GormOrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items.Dish")
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.preloaded(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.preloaded(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByStripeSession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.preloaded(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormOrderRepository) list(ctx context.Context, q *gorm.DB, page, perPage int) ([]models.Order, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := paginate(page, perPage)
	var orders []models.Order
	if err := q.Preload("Items.Dish").
		Order("order_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (r *GormOrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, perPage int) ([]models.Order, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("customer_id = ?", customerID), page, perPage)
}

// ListAll returns every order, optionally narrowed to one status.
func (r *GormOrderRepository) ListAll(ctx context.Context, status models.OrderStatus, page, perPage int) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(ctx, q, page, perPage)
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, deliveredAt *time.Time) error {
	updates := map[string]any{"status": status}
	if deliveredAt != nil {
		updates["actual_delivery_time"] = *deliveredAt
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// orderTotals is the flat row behind OrderStats. gorm cannot scan an
// aggregate into a struct that carries a slice.
type orderTotals struct {
	TotalOrders     int64
	PendingOrders   int64
	DeliveredOrders int64
	RevenueCents    int64
}

func (r *GormOrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	var totals orderTotals
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS delivered_orders,
			COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount_cents ELSE 0 END), 0) AS revenue_cents`,
			models.OrderStatusPending, models.OrderStatusDelivered, models.PaymentStatusPaid).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	byStatus, err := r.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &models.OrderStats{
		TotalOrders:     totals.TotalOrders,
		PendingOrders:   totals.PendingOrders,
		DeliveredOrders: totals.DeliveredOrders,
		RevenueCents:    totals.RevenueCents,
		ByStatus:        byStatus,
	}, nil
}

func (r *GormOrderRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	byStatus := []models.StatusCount{}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&byStatus).Error
	return byStatus, err
}

// Window covers orders placed in [from, to).
func (r *GormOrderRepository) Window(ctx context.Context, from, to time.Time) (*models.OrderWindow, error) {
	var w models.OrderWindow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(`COUNT(*) AS orders,
			COALESCE(SUM(CASE WHEN payment_status = ? THEN total_amount_cents ELSE 0 END), 0) AS revenue_cents`,
			models.PaymentStatusPaid).
		Where("order_date >= ? AND order_date < ?", from, to).
		Scan(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormOrderRepository) AverageOrderValueCents(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(AVG(total_amount_cents), 0)").
		Where("payment_status = ?", models.PaymentStatusPaid).
		Scan(&avg).Error
	return avg, err
}

// ActiveCustomers counts distinct customers that ordered since the given time.
func (r *GormOrderRepository) ActiveCustomers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_date >= ?", since).
		Distinct("customer_id").
		Count(&n).Error
	return n, err
}

// DishesServed sums item quantities of orders placed in [from, to) that the
// kitchen accepted.
func (r *GormOrderRepository) DishesServed(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.order_date >= ? AND orders.order_date < ?", from, to).
		Where("orders.status IN ?", []models.OrderStatus{
			models.OrderStatusConfirmed,
			models.OrderStatusPreparing,
			models.OrderStatusReady,
			models.OrderStatusDelivered,
		}).
		Scan(&total).Error
	return total, err
}

func (r *GormOrderRepository) TopDishes(ctx context.Context, limit int) ([]models.TopDish, error) {
	top := []models.TopDish{}
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("dishes.name AS dish_name, SUM(order_items.quantity) AS total_ordered").
		Joins("JOIN dishes ON dishes.id = order_items.dish_id").
		Group("dishes.id, dishes.name").
		Order("total_ordered DESC").
		Limit(limit).
		Scan(&top).Error
	return top, err
}
