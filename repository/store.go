package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one connection or transaction.
type Store struct {
	db   *gorm.DB
	opts []StoreOption

	Categories    CategoryRepository
	Dishes        DishRepository
	Stock         StockLedger
	Orders        OrderRepository
	Checkouts     CheckoutRepository
	Ratings       RatingRepository
	Users         UserRepository
	Admins        AdminRepository
	Notifications NotificationRepository
	Restaurants   RestaurantRepository
}

// StoreOption adjusts a Store after its repositories are built. Options
// are carried into every transaction opened with InTx.
type StoreOption func(*Store)

// WrapOrders decorates the order repository.
func WrapOrders(wrap func(OrderRepository) OrderRepository) StoreOption {
	return func(s *Store) {
		s.Orders = wrap(s.Orders)
	}
}

// WrapStock decorates the stock ledger.
func WrapStock(wrap func(StockLedger) StockLedger) StoreOption {
	return func(s *Store) {
		s.Stock = wrap(s.Stock)
	}
}

func NewStore(db *gorm.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:            db,
		opts:          opts,
		Categories:    NewGormCategoryRepository(db),
		Dishes:        NewGormDishRepository(db),
		Stock:         NewGormStockLedger(db),
		Orders:        NewGormOrderRepository(db),
		Checkouts:     NewGormCheckoutRepository(db),
		Ratings:       NewGormRatingRepository(db),
		Users:         NewGormUserRepository(db),
		Admins:        NewGormAdminRepository(db),
		Notifications: NewGormNotificationRepository(db),
		Restaurants:   NewGormRestaurantRepository(db),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// InTx runs fn against a Store bound to a single transaction. Returning an
// error from fn rolls the transaction back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.opts...))
	})
}

func paginate(page, perPage int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return (page - 1) * perPage, perPage
}
