package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

// CheckoutRepository tracks carts waiting on a hosted payment session.
type CheckoutRepository interface {
	Create(ctx context.Context, session *models.CheckoutSession) error
	FindByStripeSession(ctx context.Context, stripeSessionID string) (*models.CheckoutSession, error)
	MarkCompleted(ctx context.Context, stripeSessionID string, orderID uuid.UUID) error
	MarkStatus(ctx context.Context, stripeSessionID string, status models.CheckoutStatus, reason string) error
}

type GormCheckoutRepository struct {
	db *gorm.DB
}

func NewGormCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &GormCheckoutRepository{db: db}
}

func (r *GormCheckoutRepository) Create(ctx context.Context, session *models.CheckoutSession) error {
	return translate(r.db.WithContext(ctx).Create(session).Error)
}

func (r *GormCheckoutRepository) FindByStripeSession(ctx context.Context, stripeSessionID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", stripeSessionID).
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *GormCheckoutRepository) MarkCompleted(ctx context.Context, stripeSessionID string, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("stripe_session_id = ?", stripeSessionID).
		Updates(map[string]any{
			"status":         models.CheckoutStatusCompleted,
			"order_id":       orderID,
			"failure_reason": "",
		}).Error
}

// MarkStatus moves a session that has not produced an order to status.
// Completed sessions are left untouched.
func (r *GormCheckoutRepository) MarkStatus(ctx context.Context, stripeSessionID string, status models.CheckoutStatus, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("stripe_session_id = ? AND status <> ?", stripeSessionID, models.CheckoutStatusCompleted).
		Updates(map[string]any{
			"status":         status,
			"failure_reason": reason,
		}).Error
}
