package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationOrderPlaced          NotificationType = "order_placed"
	NotificationOrderConfirmed       NotificationType = "order_confirmed"
	NotificationOrderPreparing       NotificationType = "order_preparing"
	NotificationOrderReady           NotificationType = "order_ready"
	NotificationOrderDelivered       NotificationType = "order_delivered"
	NotificationOrderCancelled       NotificationType = "order_cancelled"
	NotificationStockLow             NotificationType = "stock_low"
	NotificationPaymentReceived      NotificationType = "payment_received"
	NotificationReconciliationFailed NotificationType = "reconciliation_failed"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string           `gorm:"type:varchar(200);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(40);not null" json:"notification_type"`
	IsRead    bool             `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
