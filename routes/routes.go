package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/controllers"
	"github.com/yashrajoria/restaurant-backend/middleware"
)

// Controllers bundles the handlers mounted under /api.
type Controllers struct {
	Auth          *controllers.AuthController
	Catalog       *controllers.CatalogController
	Orders        *controllers.OrderController
	Payments      *controllers.PaymentController
	Ratings       *controllers.RatingController
	Notifications *controllers.NotificationController
	Restaurants   *controllers.RestaurantController
	Stats         *controllers.StatsController
}

// Guards are the access controls applied per route group.
type Guards struct {
	Resolver *middleware.AuthenticationResolver
	Admins   middleware.AdminChecker
	// AuthLimiter throttles the account endpoints. Optional.
	AuthLimiter gin.HandlerFunc
	Logger      *zap.Logger
}

// RegisterRoutes mounts every /api route plus /metrics.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, guards Guards) {
	requireAuth := guards.Resolver.RequireAuth()
	optionalAuth := guards.Resolver.OptionalAuth()
	throttle := guards.AuthLimiter
	if throttle == nil {
		throttle = func(c *gin.Context) { c.Next() }
	}

	r.GET("/metrics", middleware.PrometheusHandler())

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", throttle, ctrl.Auth.Register)
		auth.POST("/login", throttle, ctrl.Auth.Login)
		auth.POST("/logout", optionalAuth, ctrl.Auth.Logout)
		auth.POST("/send-code", throttle, requireAuth, ctrl.Auth.SendCode)
		auth.POST("/verify-code", throttle, requireAuth, ctrl.Auth.VerifyCode)
		auth.GET("/profile", requireAuth, ctrl.Auth.Profile)
		auth.PUT("/profile", requireAuth, ctrl.Auth.UpdateProfile)
	}

	api.GET("/restaurant-info", ctrl.Restaurants.Info)
	api.GET("/menu-overview", ctrl.Catalog.MenuOverview)
	api.GET("/homepage-stats", ctrl.Stats.Homepage)

	api.GET("/categories", ctrl.Catalog.ListCategories)
	api.GET("/categories/:id", ctrl.Catalog.GetCategory)
	dishes := api.Group("/dishes")
	{
		dishes.GET("", ctrl.Catalog.ListDishes)
		dishes.GET("/popular", ctrl.Catalog.PopularDishes)
		dishes.GET("/:id", ctrl.Catalog.GetDish)
		dishes.GET("/:id/ratings", ctrl.Catalog.DishRatings)
	}

	orders := api.Group("/orders", requireAuth)
	{
		orders.POST("", ctrl.Orders.PlaceOrder)
		orders.GET("", ctrl.Orders.ListMine)
		orders.GET("/:id", ctrl.Orders.GetMine)
	}

	ratings := api.Group("/ratings", requireAuth)
	{
		ratings.POST("", ctrl.Ratings.AddRating)
		ratings.PUT("/:id", ctrl.Ratings.UpdateRating)
		ratings.GET("", ctrl.Ratings.ListMine)
	}

	notifications := api.Group("/notifications", requireAuth)
	{
		notifications.GET("", ctrl.Notifications.List)
		notifications.PATCH("/:id/read", ctrl.Notifications.MarkRead)
		notifications.POST("/mark-all-read", ctrl.Notifications.MarkAllRead)
	}

	stripe := api.Group("/stripe")
	{
		stripe.POST("/create-checkout-session", requireAuth, ctrl.Payments.CreateCheckoutSession)
		stripe.GET("/success", optionalAuth, ctrl.Payments.Success)
		stripe.GET("/cancel", ctrl.Payments.Cancel)
		stripe.GET("/config", ctrl.Payments.Config)
		stripe.POST("/webhook", ctrl.Payments.StripeWebhook)
	}

	admin := api.Group("/admin", requireAuth, middleware.AdminOnly(guards.Admins, guards.Logger))
	{
		admin.GET("/categories", ctrl.Catalog.AdminListCategories)
		admin.POST("/categories", ctrl.Catalog.CreateCategory)
		admin.GET("/categories/:id", ctrl.Catalog.AdminGetCategory)
		admin.PUT("/categories/:id", ctrl.Catalog.UpdateCategory)
		admin.DELETE("/categories/:id", ctrl.Catalog.DeleteCategory)

		admin.GET("/dishes", ctrl.Catalog.AdminListDishes)
		admin.POST("/dishes", ctrl.Catalog.CreateDish)
		admin.GET("/dishes/stats", ctrl.Catalog.DishStats)
		admin.GET("/dishes/low-stock", ctrl.Catalog.LowStock)
		admin.GET("/dishes/:id", ctrl.Catalog.AdminGetDish)
		admin.PUT("/dishes/:id", ctrl.Catalog.UpdateDish)
		admin.PATCH("/dishes/:id/availability", ctrl.Catalog.SetAvailability)
		admin.DELETE("/dishes/:id", ctrl.Catalog.DeleteDish)

		admin.GET("/orders", ctrl.Orders.ListAll)
		admin.GET("/orders/stats", ctrl.Orders.Stats)
		admin.PATCH("/orders/:id/status", ctrl.Orders.UpdateStatus)
		admin.GET("/customers/stats", ctrl.Orders.CustomerStats)
		admin.GET("/dashboard-stats", ctrl.Stats.Dashboard)

		admin.GET("/restaurants", ctrl.Restaurants.List)
		admin.POST("/restaurants", ctrl.Restaurants.Create)
		admin.GET("/restaurants/:id", ctrl.Restaurants.Get)
		admin.PUT("/restaurants/:id", ctrl.Restaurants.Update)
		admin.DELETE("/restaurants/:id", ctrl.Restaurants.Delete)
	}
}
