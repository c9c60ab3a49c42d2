package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

// RestaurantService keeps the venue profile shown on the public site.
type RestaurantService struct {
	restaurants repository.RestaurantRepository
	logger      *zap.Logger
}

func NewRestaurantService(store *repository.Store, logger *zap.Logger) *RestaurantService {
	return &RestaurantService{restaurants: store.Restaurants, logger: logger}
}

// Info returns the first active restaurant.
func (s *RestaurantService) Info(ctx context.Context) (*models.Restaurant, error) {
	restaurant, err := s.restaurants.FirstActive(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Restaurant information not available")
		}
		return nil, apperrors.Internal("Failed to load restaurant", err)
	}
	return restaurant, nil
}

func (s *RestaurantService) List(ctx context.Context) ([]models.Restaurant, error) {
	restaurants, err := s.restaurants.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load restaurants", err)
	}
	return restaurants, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Restaurant not found")
		}
		return nil, apperrors.Internal("Failed to load restaurant", err)
	}
	return restaurant, nil
}

func (s *RestaurantService) Create(ctx context.Context, req models.RestaurantRequest) (*models.Restaurant, error) {
	restaurant := &models.Restaurant{IsActive: req.IsActive == nil || *req.IsActive}
	applyRestaurant(restaurant, req)
	if err := s.restaurants.Create(ctx, restaurant); err != nil {
		return nil, apperrors.Internal("Failed to create restaurant", err)
	}
	s.logger.Info("Restaurant created", zap.String("restaurant_id", restaurant.ID.String()))
	return restaurant, nil
}

func (s *RestaurantService) Update(ctx context.Context, id uuid.UUID, req models.RestaurantRequest) (*models.Restaurant, error) {
	restaurant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyRestaurant(restaurant, req)
	if req.IsActive != nil {
		restaurant.IsActive = *req.IsActive
	}
	if err := s.restaurants.Update(ctx, restaurant); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Restaurant not found")
		}
		return nil, apperrors.Internal("Failed to update restaurant", err)
	}
	return s.Get(ctx, id)
}

func (s *RestaurantService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.restaurants.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Restaurant not found")
		}
		return apperrors.Internal("Failed to delete restaurant", err)
	}
	s.logger.Info("Restaurant deleted", zap.String("restaurant_id", id.String()))
	return nil
}

func applyRestaurant(r *models.Restaurant, req models.RestaurantRequest) {
	r.Name = strings.TrimSpace(req.Name)
	r.Address = strings.TrimSpace(req.Address)
	r.Phone = strings.TrimSpace(req.Phone)
	r.Email = strings.ToLower(strings.TrimSpace(req.Email))
	r.OpeningTime = req.OpeningTime
	r.ClosingTime = req.ClosingTime
	r.Description = req.Description
}
