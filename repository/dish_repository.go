package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

// DishRepository defines data access for dishes.
type DishRepository interface {
	List(ctx context.Context, filter models.DishFilter, availableOnly bool) ([]models.Dish, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dish, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error)
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	Create(ctx context.Context, dish *models.Dish) error
	Update(ctx context.Context, dish *models.Dish) error
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	ReferencedByOrders(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.DishStats, error)
	LowStock(ctx context.Context) ([]models.Dish, error)
	Popular(ctx context.Context, limit int) ([]models.PopularDish, error)
}

type GormDishRepository struct {
	db *gorm.DB
}

func NewGormDishRepository(db *gorm.DB) DishRepository {
	return &GormDishRepository{db: db}
}

var dishOrderings = map[string]string{
	"name":        "dishes.name ASC",
	"-name":       "dishes.name DESC",
	"price":       "dishes.price_cents ASC",
	"-price":      "dishes.price_cents DESC",
	"created_at":  "dishes.created_at ASC",
	"-created_at": "dishes.created_at DESC",
	"rating":      "average_rating ASC",
	"-rating":     "average_rating DESC",
}

// ValidOrdering reports whether the dish listing can sort by key.
func ValidOrdering(key string) bool {
	_, ok := dishOrderings[key]
	return key == "" || ok
}

func (r *GormDishRepository) withRatings(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Select(`dishes.*,
			COALESCE((SELECT AVG(dish_ratings.rating) FROM dish_ratings WHERE dish_ratings.dish_id = dishes.id), 0) AS average_rating,
			(SELECT COUNT(*) FROM dish_ratings WHERE dish_ratings.dish_id = dishes.id) AS rating_count`)
}

func applyDishFilter(q *gorm.DB, filter models.DishFilter, availableOnly bool) *gorm.DB {
	if availableOnly {
		q = q.Where("dishes.is_available = ?", true)
	}
	if filter.CategoryID != nil {
		q = q.Where("dishes.category_id = ?", *filter.CategoryID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(dishes.name) LIKE ? OR LOWER(dishes.ingredients) LIKE ?)", like, like)
	}
	if filter.IsVegetarian != nil {
		q = q.Where("dishes.is_vegetarian = ?", *filter.IsVegetarian)
	}
	if filter.IsSpicy != nil {
		q = q.Where("dishes.is_spicy = ?", *filter.IsSpicy)
	}
	return q
}

// List returns a page of dishes matching filter with the category preloaded.
func (r *GormDishRepository) List(ctx context.Context, filter models.DishFilter, availableOnly bool) ([]models.Dish, int64, error) {
	var total int64
	countQuery := applyDishFilter(r.db.WithContext(ctx).Model(&models.Dish{}), filter, availableOnly)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, ok := dishOrderings[filter.Ordering]
	if !ok {
		order = dishOrderings["name"]
	}
	offset, limit := paginate(filter.Page, filter.PerPage)

	var dishes []models.Dish
	if err := applyDishFilter(r.withRatings(ctx), filter, availableOnly).
		Preload("Category").
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&dishes).Error; err != nil {
		return nil, 0, err
	}
	return dishes, total, nil
}

func (r *GormDishRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dish, error) {
	var dish models.Dish
	if err := r.withRatings(ctx).Preload("Category").Where("dishes.id = ?", id).First(&dish).Error; err != nil {
		return nil, translate(err)
	}
	return &dish, nil
}

// FindByIDs loads the current state of the given dishes keyed by id.
// Missing ids are absent from the result.
func (r *GormDishRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Dish, error) {
	out := make(map[uuid.UUID]models.Dish, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var dishes []models.Dish
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, err
	}
	for _, d := range dishes {
		out[d.ID] = d
	}
	return out, nil
}

func (r *GormDishRepository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("slug = ? AND id <> ?", slug, exclude).
		Count(&count).Error
	return count > 0, err
}

func (r *GormDishRepository) Create(ctx context.Context, dish *models.Dish) error {
	return translate(r.db.WithContext(ctx).Omit("Category", "Ratings").Create(dish).Error)
}

// Update overwrites every editable column, stock included.
func (r *GormDishRepository) Update(ctx context.Context, dish *models.Dish) error {
	result := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ?", dish.ID).
		Updates(map[string]any{
			"name":                dish.Name,
			"slug":                dish.Slug,
			"description":         dish.Description,
			"price_cents":         dish.PriceCents,
			"category_id":         dish.CategoryID,
			"is_available":        dish.IsAvailable,
			"stock_quantity":      dish.StockQuantity,
			"low_stock_threshold": dish.LowStockThreshold,
			"preparation_time":    dish.PreparationTime,
			"ingredients":         dish.Ingredients,
			"is_spicy":            dish.IsSpicy,
			"is_vegetarian":       dish.IsVegetarian,
			"calories":            dish.Calories,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormDishRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Where("id = ?", id).
		Update("is_available", available)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormDishRepository) ReferencedByOrders(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("dish_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the dish and its ratings.
func (r *GormDishRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dish_id = ?", id).Delete(&models.DishRating{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Dish{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormDishRepository) Stats(ctx context.Context) (*models.DishStats, error) {
	var stats models.DishStats
	err := r.db.WithContext(ctx).
		Model(&models.Dish{}).
		Select(`COUNT(*) AS total_dishes,
			COALESCE(SUM(CASE WHEN is_available = ? THEN 1 ELSE 0 END), 0) AS available_dishes,
			COALESCE(SUM(CASE WHEN is_vegetarian = ? THEN 1 ELSE 0 END), 0) AS vegetarian_dishes,
			COALESCE(SUM(CASE WHEN is_spicy = ? THEN 1 ELSE 0 END), 0) AS spicy_dishes`, true, true, true).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// LowStock lists dishes at or below their own threshold, emptiest first.
func (r *GormDishRepository) LowStock(ctx context.Context) ([]models.Dish, error) {
	var dishes []models.Dish
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("stock_quantity <= low_stock_threshold").
		Order("stock_quantity ASC, name ASC").
		Find(&dishes).Error
	return dishes, err
}

// Popular ranks available dishes by the total quantity ever ordered.
func (r *GormDishRepository) Popular(ctx context.Context, limit int) ([]models.PopularDish, error) {
	if limit <= 0 {
		limit = 10
	}
	var popular []models.PopularDish
	err := r.db.WithContext(ctx).
		Table("dishes").
		Select(`dishes.id, dishes.name, dishes.price_cents,
			SUM(order_items.quantity) AS total_ordered,
			COUNT(DISTINCT order_items.order_id) AS order_count`).
		Joins("JOIN order_items ON order_items.dish_id = dishes.id").
		Where("dishes.is_available = ?", true).
		Group("dishes.id, dishes.name, dishes.price_cents").
		Order("total_ordered DESC, dishes.name ASC").
		Limit(limit).
		Scan(&popular).Error
	return popular, err
}
