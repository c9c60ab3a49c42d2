package services

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

// TopDishCount is how many best sellers the admin dashboard lists.
const TopDishCount = 5

// StatsService aggregates the public landing page figures and the admin
// dashboard. Days are UTC calendar days.
type StatsService struct {
	store  *repository.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewStatsService(store *repository.Store, logger *zap.Logger) *StatsService {
	return &StatsService{store: store, now: time.Now, logger: logger}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// percentChange compares current against previous, reporting 0 when there
// is nothing to compare against.
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return round((current-previous)/math.Max(previous, 1)*100, 1)
}

func (s *StatsService) Homepage(ctx context.Context) (*models.HomepageStats, error) {
	customers, err := s.store.Users.CustomerStats(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load statistics", err)
	}
	today := startOfDay(s.now())
	served, err := s.store.Orders.DishesServed(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperrors.Internal("Failed to load statistics", err)
	}
	dishes, err := s.store.Dishes.Stats(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load statistics", err)
	}
	rating, err := s.store.Ratings.AverageOverall(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load statistics", err)
	}
	return &models.HomepageStats{
		TotalCustomers:    customers.TotalCustomers,
		DishesServedToday: served,
		MenuItems:         dishes.AvailableDishes,
		AverageRating:     round(rating, 1),
	}, nil
}

func (s *StatsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	fail := func(err error) (*models.DashboardStats, error) {
		s.logger.Error("Failed to build dashboard statistics", zap.Error(err))
		return nil, apperrors.Internal("Failed to load statistics", err)
	}

	now := s.now().UTC()
	today := startOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	weekAgo := now.AddDate(0, 0, -7)

	orders, err := s.store.Orders.Stats(ctx)
	if err != nil {
		return fail(err)
	}
	customers, err := s.store.Users.CustomerStats(ctx)
	if err != nil {
		return fail(err)
	}
	dishes, err := s.store.Dishes.Stats(ctx)
	if err != nil {
		return fail(err)
	}
	categories, err := s.store.Categories.Count(ctx)
	if err != nil {
		return fail(err)
	}
	rating, err := s.store.Ratings.AverageOverall(ctx)
	if err != nil {
		return fail(err)
	}
	todayWindow, err := s.store.Orders.Window(ctx, today, tomorrow)
	if err != nil {
		return fail(err)
	}
	yesterdayWindow, err := s.store.Orders.Window(ctx, yesterday, today)
	if err != nil {
		return fail(err)
	}
	recentWindow, err := s.store.Orders.Window(ctx, weekAgo, tomorrow)
	if err != nil {
		return fail(err)
	}
	active, err := s.store.Orders.ActiveCustomers(ctx, weekAgo)
	if err != nil {
		return fail(err)
	}
	avgCents, err := s.store.Orders.AverageOrderValueCents(ctx)
	if err != nil {
		return fail(err)
	}
	top, err := s.store.Orders.TopDishes(ctx, TopDishCount)
	if err != nil {
		return fail(err)
	}

	todayRevenue := toAmount(todayWindow.RevenueCents)
	yesterdayRevenue := toAmount(yesterdayWindow.RevenueCents)
	return &models.DashboardStats{
		Overview: models.DashboardOverview{
			TotalOrders:     orders.TotalOrders,
			TotalCustomers:  customers.TotalCustomers,
			TotalDishes:     dishes.TotalDishes,
			TotalCategories: categories,
			TotalRevenue:    toAmount(orders.RevenueCents),
			AverageRating:   round(rating, 2),
		},
		Today: models.DashboardToday{
			TodayOrders:      todayWindow.Orders,
			TodayRevenue:     todayRevenue,
			YesterdayOrders:  yesterdayWindow.Orders,
			YesterdayRevenue: yesterdayRevenue,
			OrdersChange:     percentChange(float64(todayWindow.Orders), float64(yesterdayWindow.Orders)),
			RevenueChange:    percentChange(todayRevenue, yesterdayRevenue),
		},
		Recent: models.DashboardRecent{
			RecentOrders:    recentWindow.Orders,
			RecentRevenue:   toAmount(recentWindow.RevenueCents),
			ActiveCustomers: active,
			PendingOrders:   orders.PendingOrders,
		},
		Performance: models.DashboardPerformance{
			DeliveredOrders:   orders.DeliveredOrders,
			AverageOrderValue: round(avgCents/100, 2),
			CompletionRate:    round(float64(orders.DeliveredOrders)/math.Max(float64(orders.TotalOrders), 1)*100, 1),
		},
		OrderStatuses: orders.ByStatus,
		TopDishes:     top,
	}, nil
}
