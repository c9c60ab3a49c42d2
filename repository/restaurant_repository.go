package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

type RestaurantRepository interface {
	List(ctx context.Context) ([]models.Restaurant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	FirstActive(ctx context.Context) (*models.Restaurant, error)
	Create(ctx context.Context, restaurant *models.Restaurant) error
	Update(ctx context.Context, restaurant *models.Restaurant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormRestaurantRepository struct {
	db *gorm.DB
}

func NewGormRestaurantRepository(db *gorm.DB) RestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

func (r *GormRestaurantRepository) List(ctx context.Context) ([]models.Restaurant, error) {
	restaurants := []models.Restaurant{}
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&restaurants).Error
	return restaurants, err
}

func (r *GormRestaurantRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&restaurant).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

// FirstActive returns the oldest active restaurant.
func (r *GormRestaurantRepository) FirstActive(ctx context.Context) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&restaurant).Error
	if err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (r *GormRestaurantRepository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	return translate(r.db.WithContext(ctx).Create(restaurant).Error)
}

func (r *GormRestaurantRepository) Update(ctx context.Context, restaurant *models.Restaurant) error {
	result := r.db.WithContext(ctx).
		Model(&models.Restaurant{}).
		Where("id = ?", restaurant.ID).
		Updates(map[string]any{
			"name":         restaurant.Name,
			"address":      restaurant.Address,
			"phone":        restaurant.Phone,
			"email":        restaurant.Email,
			"opening_time": restaurant.OpeningTime,
			"closing_time": restaurant.ClosingTime,
			"is_active":    restaurant.IsActive,
			"description":  restaurant.Description,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRestaurantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Restaurant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
