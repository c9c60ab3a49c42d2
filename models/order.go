package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is a customer's purchase. TotalAmountCents is the sum of its items;
// the delivery fee is kept apart.
type Order struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID            uuid.UUID     `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer              *Customer     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	OrderDate             time.Time     `gorm:"not null;autoCreateTime;<-:create" json:"order_date"`
	Status                OrderStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus         PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	TotalAmountCents      int64         `gorm:"not null;default:0" json:"total_amount_cents"`
	DeliveryFeeCents      int64         `gorm:"not null;default:0" json:"delivery_fee_cents"`
	DeliveryAddress       string        `gorm:"type:text;not null" json:"delivery_address"`
	SpecialInstructions   string        `gorm:"type:text" json:"special_instructions"`
	EstimatedDeliveryTime *time.Time    `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    *time.Time    `json:"actual_delivery_time,omitempty"`
	StripeSessionID       *string       `gorm:"type:varchar(255);uniqueIndex" json:"stripe_session_id,omitempty"`
	Items                 []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt             time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// GrandTotalCents is what the customer is charged.
func (o *Order) GrandTotalCents() int64 {
	return o.TotalAmountCents + o.DeliveryFeeCents
}

// OrderItem is one line of an order with the unit price captured at
// placement time.
type OrderItem struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID             uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	DishID              uuid.UUID `gorm:"type:uuid;not null;index" json:"dish_id"`
	Dish                *Dish     `gorm:"foreignKey:DishID;constraint:OnDelete:RESTRICT" json:"dish,omitempty"`
	Quantity            int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	PriceCents          int64     `gorm:"not null" json:"price_cents"`
	SpecialInstructions string    `gorm:"type:text" json:"special_instructions"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) TotalPriceCents() int64 {
	return i.PriceCents * int64(i.Quantity)
}

type CheckoutStatus string

const (
	CheckoutStatusCreated   CheckoutStatus = "created"
	CheckoutStatusCompleted CheckoutStatus = "completed"
	CheckoutStatusExpired   CheckoutStatus = "expired"
	CheckoutStatusFailed    CheckoutStatus = "failed"
)

// CartLine is a validated item captured when a checkout session is opened.
type CartLine struct {
	DishID              uuid.UUID `json:"dish_id"`
	DishName            string    `json:"dish_name"`
	Quantity            int       `json:"quantity"`
	UnitPriceCents      int64     `json:"unit_price_cents"`
	SpecialInstructions string    `json:"special_instructions,omitempty"`
}

// CheckoutSession holds the cart behind a hosted payment session until the
// payment completes and an order is materialized from it.
type CheckoutSession struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StripeSessionID     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_session_id"`
	CustomerID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"customer_id"`
	Items               []CartLine     `gorm:"type:text;serializer:json;not null" json:"items"`
	DeliveryAddress     string         `gorm:"type:text;not null" json:"delivery_address"`
	SpecialInstructions string         `gorm:"type:text" json:"special_instructions"`
	ItemsTotalCents     int64          `gorm:"not null" json:"items_total_cents"`
	DeliveryFeeCents    int64          `gorm:"not null" json:"delivery_fee_cents"`
	Status              CheckoutStatus `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
	OrderID             *uuid.UUID     `gorm:"type:uuid" json:"order_id,omitempty"`
	FailureReason       string         `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *CheckoutSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// OrderStats summarizes orders for the admin dashboard.
type OrderStats struct {
	TotalOrders     int64         `json:"total_orders"`
	PendingOrders   int64         `json:"pending_orders"`
	DeliveredOrders int64         `json:"delivered_orders"`
	RevenueCents    int64         `json:"revenue_cents"`
	ByStatus        []StatusCount `json:"by_status"`
}

type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int64       `json:"count"`
}

// OrderWindow counts orders placed in a time range and the paid revenue
// among them.
type OrderWindow struct {
	Orders       int64
	RevenueCents int64
}

type TopDish struct {
	DishName     string `json:"dish_name"`
	TotalOrdered int64  `json:"total_ordered"`
}

type CustomerStats struct {
	TotalCustomers      int64 `json:"total_customers"`
	CustomersWithOrders int64 `json:"customers_with_orders"`
}
