package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

// CategoryRepository defines data access for menu categories.
type CategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	ReferencedByOrders(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select(`categories.*,
			(SELECT COUNT(*) FROM dishes WHERE dishes.category_id = categories.id) AS dishes_count,
			(SELECT COUNT(*) FROM dishes WHERE dishes.category_id = categories.id AND dishes.is_available = ?) AS available_dishes_count`, true)
}

// List returns categories ordered by name with their dish counts.
func (r *GormCategoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	var categories []models.Category
	q := r.withCounts(ctx)
	if activeOnly {
		q = q.Where("categories.is_active = ?", true)
	}
	if err := q.Order("categories.name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.withCounts(ctx).Where("categories.id = ?", id).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *GormCategoryRepository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("slug = ? AND id <> ?", slug, exclude).
		Count(&count).Error
	return count > 0, err
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Omit("Dishes").Create(category).Error)
}

func (r *GormCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	result := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":        category.Name,
			"slug":        category.Slug,
			"description": category.Description,
			"is_active":   category.IsActive,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReferencedByOrders reports whether any order line points at a dish of
// the category.
func (r *GormCategoryRepository) ReferencedByOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("order_items").
		Joins("JOIN dishes ON dishes.id = order_items.dish_id").
		Where("dishes.category_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the category together with its dishes and their ratings.
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dishIDs := tx.Model(&models.Dish{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("dish_id IN (?)", dishIDs).Delete(&models.DishRating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.Dish{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormCategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error
	return count, err
}
