package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

// StockLedger owns every mutation of dishes.stock_quantity made on behalf
// of orders.
type StockLedger interface {
	Reserve(ctx context.Context, dishID uuid.UUID, qty int) error
	Available(ctx context.Context, dishID uuid.UUID) (int, error)
}

type GormStockLedger struct {
	db *gorm.DB
}

func NewGormStockLedger(db *gorm.DB) StockLedger {
	return &GormStockLedger{db: db}
}

// Reserve decrements stock by qty in a single conditional statement. When
// fewer than qty units remain nothing changes and ErrInsufficientStock is
// returned.
func (l *GormStockLedger) Reserve(ctx context.Context, dishID uuid.UUID, qty int) error {
	if qty < 1 {
		return ErrInsufficientStock
	}
	result := l.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ? AND stock_quantity >= ?", dishID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (l *GormStockLedger) Available(ctx context.Context, dishID uuid.UUID) (int, error) {
	var stock int
	err := l.db.WithContext(ctx).
		Model(&models.Dish{}).
		Select("stock_quantity").
		Where("id = ?", dishID).
		Scan(&stock).Error
	return stock, err
}
