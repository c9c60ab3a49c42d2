package models

import "github.com/google/uuid"

// OrderItemRequest is one requested line of an order or checkout.
type OrderItemRequest struct {
	DishID              uuid.UUID `json:"dish_id" binding:"required"`
	Quantity            int       `json:"quantity" binding:"required,min=1"`
	SpecialInstructions string    `json:"special_instructions"`
}

type PlaceOrderRequest struct {
	DeliveryAddress     string             `json:"delivery_address" binding:"required"`
	SpecialInstructions string             `json:"special_instructions"`
	Items               []OrderItemRequest `json:"items" binding:"dive"`
}

// CheckoutRequest opens a hosted payment session for a cart.
type CheckoutRequest struct {
	DeliveryAddress     string             `json:"delivery_address" binding:"required"`
	SpecialInstructions string             `json:"special_instructions"`
	Items               []OrderItemRequest `json:"items" binding:"dive"`
}

type CheckoutResponse struct {
	CheckoutURL string  `json:"checkout_url"`
	SessionID   string  `json:"session_id"`
	TotalAmount float64 `json:"total_amount"`
}

// PaymentConfirmation answers the success redirect. Order details are only
// filled in for the customer who paid.
type PaymentConfirmation struct {
	Message     string     `json:"message"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
	TotalAmount float64    `json:"total_amount,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

type RatingRequest struct {
	DishID  uuid.UUID `json:"dish_id" binding:"required"`
	Rating  int       `json:"rating" binding:"required,min=1,max=5"`
	Comment string    `json:"comment"`
}

type UpdateRatingRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,slugname,max=100"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// DishRequest carries a full dish definition. Stock is written as an
// absolute value.
type DishRequest struct {
	Name              string    `json:"name" binding:"required,slugname,max=200"`
	Description       string    `json:"description"`
	PriceCents        int64     `json:"price_cents" binding:"required,gt=0"`
	CategoryID        uuid.UUID `json:"category_id" binding:"required"`
	IsAvailable       *bool     `json:"is_available"`
	StockQuantity     int       `json:"stock_quantity" binding:"gte=0"`
	LowStockThreshold *int      `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	PreparationTime   int       `json:"preparation_time" binding:"omitempty,gte=0"`
	Ingredients       string    `json:"ingredients"`
	IsSpicy           bool      `json:"is_spicy"`
	IsVegetarian      bool      `json:"is_vegetarian"`
	Calories          *int      `json:"calories" binding:"omitempty,gte=0"`
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// DishFilter narrows the public dish listing.
type DishFilter struct {
	CategoryID   *uuid.UUID
	Search       string
	IsVegetarian *bool
	IsSpicy      *bool
	Ordering     string
	Page         int
	PerPage      int
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required,phone"`
	Address   string `json:"address" binding:"required"`
}

// LoginRequest accepts either a username or an email in Username.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	SessionKey  string    `json:"session_key"`
	User        *User     `json:"user"`
	Customer    *Customer `json:"customer"`
	IsAdmin     bool      `json:"is_admin"`
}

type SendCodeRequest struct {
	Type VerificationType `json:"type" binding:"required,oneof=phone email"`
}

type VerifyCodeRequest struct {
	Type VerificationType `json:"type" binding:"required,oneof=phone email"`
	Code string           `json:"code" binding:"required,len=6,numeric"`
}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Phone     *string `json:"phone" binding:"omitempty,phone"`
	Address   *string `json:"address"`
}

type RestaurantRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Address     string `json:"address" binding:"required"`
	Phone       string `json:"phone" binding:"required,max=15"`
	Email       string `json:"email" binding:"required,email"`
	OpeningTime string `json:"opening_time" binding:"required,clock"`
	ClosingTime string `json:"closing_time" binding:"required,clock"`
	IsActive    *bool  `json:"is_active"`
	Description string `json:"description"`
}

type Profile struct {
	User          *User     `json:"user"`
	Customer      *Customer `json:"customer"`
	TotalOrders   int64     `json:"total_orders"`
	AverageRating float64   `json:"average_rating_given"`
	IsVIP         bool      `json:"is_vip"`
	RecentOrders  []Order   `json:"recent_orders"`
}

// Paginated wraps a page of results.
type Paginated[T any] struct {
	Results []T   `json:"results"`
	Count   int64 `json:"count"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

type RegisterResponse struct {
	User             *User     `json:"user"`
	Customer         *Customer `json:"customer"`
	Message          string    `json:"message"`
	VerificationCode string    `json:"verification_code,omitempty"`
}

type SendCodeResponse struct {
	Message          string `json:"message"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// MenuOverview is the landing page menu: active categories and a handful
// of available dishes.
type MenuOverview struct {
	Categories     []Category `json:"categories"`
	FeaturedDishes []Dish     `json:"featured_dishes"`
}

type HomepageStats struct {
	TotalCustomers    int64   `json:"total_customers"`
	DishesServedToday int64   `json:"dishes_served_today"`
	MenuItems         int64   `json:"menu_items"`
	AverageRating     float64 `json:"average_rating"`
}

// DashboardStats is the admin dashboard summary. Money is in currency
// units, changes and rates in percent.
type DashboardStats struct {
	Overview      DashboardOverview    `json:"overview"`
	Today         DashboardToday       `json:"today_stats"`
	Recent        DashboardRecent      `json:"recent_stats"`
	Performance   DashboardPerformance `json:"performance"`
	OrderStatuses []StatusCount        `json:"order_statuses"`
	TopDishes     []TopDish            `json:"top_dishes"`
}

type DashboardOverview struct {
	TotalOrders     int64   `json:"total_orders"`
	TotalCustomers  int64   `json:"total_customers"`
	TotalDishes     int64   `json:"total_dishes"`
	TotalCategories int64   `json:"total_categories"`
	TotalRevenue    float64 `json:"total_revenue"`
	AverageRating   float64 `json:"average_rating"`
}

type DashboardToday struct {
	TodayOrders      int64   `json:"today_orders"`
	TodayRevenue     float64 `json:"today_revenue"`
	YesterdayOrders  int64   `json:"yesterday_orders"`
	YesterdayRevenue float64 `json:"yesterday_revenue"`
	OrdersChange     float64 `json:"orders_change"`
	RevenueChange    float64 `json:"revenue_change"`
}

type DashboardRecent struct {
	RecentOrders    int64   `json:"recent_orders"`
	RecentRevenue   float64 `json:"recent_revenue"`
	ActiveCustomers int64   `json:"active_customers"`
	PendingOrders   int64   `json:"pending_orders"`
}

type DashboardPerformance struct {
	DeliveredOrders   int64   `json:"delivered_orders"`
	AverageOrderValue float64 `json:"average_order_value"`
	CompletionRate    float64 `json:"completion_rate"`
}
