package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/yashrajoria/restaurant-backend/models"
)

// CatalogServiceAPI defines the catalog operations used by the public and
// admin menu handlers.
type CatalogServiceAPI interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Category, error)
	CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req models.CategoryRequest) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListDishes(ctx context.Context, filter models.DishFilter, availableOnly bool) (*models.Paginated[models.Dish], error)
	GetDish(ctx context.Context, id uuid.UUID, includeUnavailable bool) (*models.Dish, error)
	DishRatings(ctx context.Context, id uuid.UUID) ([]models.DishRating, error)
	PopularDishes(ctx context.Context, limit int) ([]models.PopularDish, error)
	CreateDish(ctx context.Context, req models.DishRequest) (*models.Dish, error)
	UpdateDish(ctx context.Context, id uuid.UUID, req models.DishRequest) (*models.Dish, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.Dish, error)
	DeleteDish(ctx context.Context, id uuid.UUID) error
	DishStats(ctx context.Context) (*models.DishStats, error)
	LowStock(ctx context.Context) ([]models.Dish, error)
	MenuOverview(ctx context.Context) (*models.MenuOverview, error)
}

type OrderServiceAPI interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req models.PlaceOrderRequest) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, page, perPage int) (*models.Paginated[models.Order], error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, status models.OrderStatus, page, perPage int) (*models.Paginated[models.Order], error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error)
	Stats(ctx context.Context) (*models.OrderStats, error)
	CustomerStats(ctx context.Context) (*models.CustomerStats, error)
}

type PaymentServiceAPI interface {
	CreateCheckout(ctx context.Context, userID uuid.UUID, email string, req models.CheckoutRequest) (*models.CheckoutResponse, error)
	ConfirmRedirect(ctx context.Context, stripeSessionID string, userID uuid.UUID) (*models.PaymentConfirmation, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	PublishableKey() (string, error)
}

type RatingServiceAPI interface {
	AddRating(ctx context.Context, userID, dishID uuid.UUID, rating int, comment string) (*models.DishRating, error)
	UpdateRating(ctx context.Context, ratingID, userID uuid.UUID, rating int, comment string) (*models.DishRating, error)
	ListMyRatings(ctx context.Context, userID uuid.UUID) ([]models.DishRating, error)
}

type AccountServiceAPI interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, sessionKey string) error
	SendCode(ctx context.Context, userID uuid.UUID, kind models.VerificationType) (*models.SendCodeResponse, error)
	VerifyCode(ctx context.Context, userID uuid.UUID, kind models.VerificationType, code string) error
	Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.Profile, error)
}

type NotificationServiceAPI interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type RestaurantServiceAPI interface {
	Info(ctx context.Context) (*models.Restaurant, error)
	List(ctx context.Context) ([]models.Restaurant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	Create(ctx context.Context, req models.RestaurantRequest) (*models.Restaurant, error)
	Update(ctx context.Context, id uuid.UUID, req models.RestaurantRequest) (*models.Restaurant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type StatsServiceAPI interface {
	Homepage(ctx context.Context) (*models.HomepageStats, error)
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
}
