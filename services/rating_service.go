package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/repository"
)

type RatingService struct {
	ratings repository.RatingRepository
	dishes  repository.DishRepository
	users   repository.UserRepository
	metrics *Metrics
	logger  *zap.Logger
}

func NewRatingService(store *repository.Store, metrics *Metrics, logger *zap.Logger) *RatingService {
	return &RatingService{
		ratings: store.Ratings,
		dishes:  store.Dishes,
		users:   store.Users,
		metrics: metrics,
		logger:  logger,
	}
}

func validRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return apperrors.Validation("Rating must be between 1 and 5").With("rating", rating)
	}
	return nil
}

// AddRating records a new score. Customers may rate a dish more than once.
func (s *RatingService) AddRating(ctx context.Context, userID, dishID uuid.UUID, rating int, comment string) (*models.DishRating, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}
	if _, err := s.dishes.FindByID(ctx, dishID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrDishNotFound.With("dish_id", dishID.String())
		}
		return nil, apperrors.Internal("Failed to load dish", err)
	}

	customer, err := s.users.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load customer", err)
	}

	r := &models.DishRating{DishID: dishID, CustomerID: customer.ID, Rating: rating, Comment: comment}
	if err := s.ratings.Create(ctx, r); err != nil {
		return nil, apperrors.Internal("Failed to save rating", err)
	}
	s.metrics.Count(ctx, aws_pkg.MetricRatingsAdded, nil)
	return r, nil
}

// UpdateRating changes a rating owned by the caller. Ratings of other
// customers are reported as missing.
func (s *RatingService) UpdateRating(ctx context.Context, ratingID, userID uuid.UUID, rating int, comment string) (*models.DishRating, error) {
	if err := validRating(rating); err != nil {
		return nil, err
	}

	existing, err := s.ratings.FindByID(ctx, ratingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Rating not found")
		}
		return nil, apperrors.Internal("Failed to load rating", err)
	}
	customer, err := s.users.FindCustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Rating not found")
		}
		return nil, apperrors.Internal("Failed to load customer", err)
	}
	if existing.CustomerID != customer.ID {
		return nil, apperrors.NotFound("Rating not found")
	}

	if err := s.ratings.Update(ctx, ratingID, rating, comment); err != nil {
		return nil, apperrors.Internal("Failed to update rating", err)
	}
	existing.Rating = rating
	existing.Comment = comment
	return existing, nil
}

func (s *RatingService) ListMyRatings(ctx context.Context, userID uuid.UUID) ([]models.DishRating, error) {
	customer, err := s.users.FindCustomerByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []models.DishRating{}, nil
		}
		return nil, apperrors.Internal("Failed to load customer", err)
	}
	ratings, err := s.ratings.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load ratings", err)
	}
	return ratings, nil
}

func (s *RatingService) ListDishRatings(ctx context.Context, dishID uuid.UUID) ([]models.DishRating, error) {
	ratings, err := s.ratings.ListByDish(ctx, dishID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load ratings", err)
	}
	return ratings, nil
}

// AverageRating is the mean score of a dish, 0 when it has none.
func (s *RatingService) AverageRating(ctx context.Context, dishID uuid.UUID) (float64, error) {
	avg, err := s.ratings.AverageForDish(ctx, dishID)
	if err != nil {
		return 0, apperrors.Internal("Failed to compute rating", err)
	}
	return avg, nil
}
