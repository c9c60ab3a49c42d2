package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

// RatingRepository defines data access for dish ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *models.DishRating) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DishRating, error)
	Update(ctx context.Context, id uuid.UUID, rating int, comment string) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.DishRating, error)
	ListByDish(ctx context.Context, dishID uuid.UUID) ([]models.DishRating, error)
	AverageForDish(ctx context.Context, dishID uuid.UUID) (float64, error)
	AverageByCustomer(ctx context.Context, customerID uuid.UUID) (float64, error)
	AverageOverall(ctx context.Context) (float64, error)
}

type GormRatingRepository struct {
	db *gorm.DB
}

func NewGormRatingRepository(db *gorm.DB) RatingRepository {
	return &GormRatingRepository{db: db}
}

func (r *GormRatingRepository) Create(ctx context.Context, rating *models.DishRating) error {
	return r.db.WithContext(ctx).Omit("Customer").Create(rating).Error
}

func (r *GormRatingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.DishRating, error) {
	var rating models.DishRating
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rating).Error; err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (r *GormRatingRepository) Update(ctx context.Context, id uuid.UUID, rating int, comment string) error {
	return r.db.WithContext(ctx).
		Model(&models.DishRating{}).
		Where("id = ?", id).
		Updates(map[string]any{"rating": rating, "comment": comment}).Error
}

func (r *GormRatingRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.DishRating, error) {
	var ratings []models.DishRating
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *GormRatingRepository) ListByDish(ctx context.Context, dishID uuid.UUID) ([]models.DishRating, error) {
	var ratings []models.DishRating
	err := r.db.WithContext(ctx).
		Where("dish_id = ?", dishID).
		Order("created_at DESC").
		Find(&ratings).Error
	return ratings, err
}

// AverageForDish is the arithmetic mean of the dish's ratings, 0 when it
// has none.
func (r *GormRatingRepository) AverageForDish(ctx context.Context, dishID uuid.UUID) (float64, error) {
	return r.average(ctx, "dish_id = ?", dishID)
}

func (r *GormRatingRepository) AverageByCustomer(ctx context.Context, customerID uuid.UUID) (float64, error) {
	return r.average(ctx, "customer_id = ?", customerID)
}

// AverageOverall averages every rating ever given, 0 when there are none.
func (r *GormRatingRepository) AverageOverall(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.DishRating{}).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	return avg, err
}

func (r *GormRatingRepository) average(ctx context.Context, where string, arg any) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&models.DishRating{}).
		Select("COALESCE(AVG(rating), 0)").
		Where(where, arg).
		Scan(&avg).Error
	return avg, err
}
