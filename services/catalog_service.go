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

// CatalogService serves the public menu and its admin maintenance.
type CatalogService struct {
	categories repository.CategoryRepository
	dishes     repository.DishRepository
	ratings    repository.RatingRepository
	cache      PopularCache
	logger     *zap.Logger
}

func NewCatalogService(store *repository.Store, cache PopularCache, logger *zap.Logger) *CatalogService {
	if cache == nil {
		cache = NoopPopularCache{}
	}
	return &CatalogService{
		categories: store.Categories,
		dishes:     store.Dishes,
		ratings:    store.Ratings,
		cache:      cache,
		logger:     logger,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	categories, err := s.categories.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.Internal("Failed to load categories", err)
	}
	return categories, nil
}

// GetCategory hides inactive categories unless includeInactive is set.
func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Category not found")
		}
		return nil, apperrors.Internal("Failed to load category", err)
	}
	if !category.IsActive && !includeInactive {
		return nil, apperrors.NotFound("Category not found")
	}
	return category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req models.CategoryRequest) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        models.Slugify(req.Name),
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.ensureCategorySlug(ctx, category.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A category with this name already exists")
		}
		return nil, apperrors.Internal("Failed to create category", err)
	}
	s.logger.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("slug", category.Slug))
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req models.CategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, id, true)
	if err != nil {
		return nil, err
	}
	category.Name = strings.TrimSpace(req.Name)
	category.Slug = models.Slugify(req.Name)
	category.Description = req.Description
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.ensureCategorySlug(ctx, category.Slug, id); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A category with this name already exists")
		}
		return nil, apperrors.Internal("Failed to update category", err)
	}
	s.cache.Invalidate(ctx)
	return s.GetCategory(ctx, id, true)
}

// DeleteCategory removes a category with its dishes. Categories whose
// dishes appear on any order are kept.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	referenced, err := s.categories.ReferencedByOrders(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to delete category", err)
	}
	if referenced {
		return apperrors.ErrReferencedByOrder.
			WithMessage("Category has dishes referenced by existing orders").
			With("category_id", id.String())
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Category not found")
		}
		return apperrors.Internal("Failed to delete category", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *CatalogService) ensureCategorySlug(ctx context.Context, slug string, exclude uuid.UUID) error {
	if slug == "" {
		return apperrors.Validation("Name must contain letters or digits")
	}
	taken, err := s.categories.SlugTaken(ctx, slug, exclude)
	if err != nil {
		return apperrors.Internal("Failed to validate category", err)
	}
	if taken {
		return apperrors.Conflict("A category with this name already exists").With("slug", slug)
	}
	return nil
}

func (s *CatalogService) ListDishes(ctx context.Context, filter models.DishFilter, availableOnly bool) (*models.Paginated[models.Dish], error) {
	if !repository.ValidOrdering(filter.Ordering) {
		return nil, apperrors.Validation("Invalid ordering").With("ordering", filter.Ordering)
	}
	dishes, total, err := s.dishes.List(ctx, filter, availableOnly)
	if err != nil {
		return nil, apperrors.Internal("Failed to load dishes", err)
	}
	return &models.Paginated[models.Dish]{Results: dishes, Count: total, Page: filter.Page, PerPage: filter.PerPage}, nil
}

// GetDish hides unavailable dishes unless includeUnavailable is set.
func (s *CatalogService) GetDish(ctx context.Context, id uuid.UUID, includeUnavailable bool) (*models.Dish, error) {
	dish, err := s.dishes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrDishNotFound.With("dish_id", id.String())
		}
		return nil, apperrors.Internal("Failed to load dish", err)
	}
	if !dish.IsAvailable && !includeUnavailable {
		return nil, apperrors.ErrDishNotFound.With("dish_id", id.String())
	}
	return dish, nil
}

func (s *CatalogService) DishRatings(ctx context.Context, id uuid.UUID) ([]models.DishRating, error) {
	if _, err := s.GetDish(ctx, id, false); err != nil {
		return nil, err
	}
	ratings, err := s.ratings.ListByDish(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to load ratings", err)
	}
	return ratings, nil
}

// PopularDishes returns the most ordered dishes, served from cache when
// possible.
func (s *CatalogService) PopularDishes(ctx context.Context, limit int) ([]models.PopularDish, error) {
	if cached, ok := s.cache.Get(ctx); ok {
		return truncate(cached, limit), nil
	}
	popular, err := s.dishes.Popular(ctx, 10)
	if err != nil {
		return nil, apperrors.Internal("Failed to load popular dishes", err)
	}
	if popular == nil {
		popular = []models.PopularDish{}
	}
	s.cache.Set(ctx, popular)
	return truncate(popular, limit), nil
}

// FeaturedDishCount is how many available dishes the menu overview shows.
const FeaturedDishCount = 6

// MenuOverview lists the active categories with the first available
// dishes in menu order.
func (s *CatalogService) MenuOverview(ctx context.Context) (*models.MenuOverview, error) {
	categories, err := s.categories.List(ctx, true)
	if err != nil {
		return nil, apperrors.Internal("Failed to load categories", err)
	}
	dishes, _, err := s.dishes.List(ctx, models.DishFilter{Page: 1, PerPage: FeaturedDishCount}, true)
	if err != nil {
		return nil, apperrors.Internal("Failed to load dishes", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	if dishes == nil {
		dishes = []models.Dish{}
	}
	return &models.MenuOverview{Categories: categories, FeaturedDishes: dishes}, nil
}

func truncate(dishes []models.PopularDish, limit int) []models.PopularDish {
	if limit > 0 && len(dishes) > limit {
		return dishes[:limit]
	}
	return dishes
}

func (s *CatalogService) CreateDish(ctx context.Context, req models.DishRequest) (*models.Dish, error) {
	dish := &models.Dish{}
	applyDishRequest(dish, req)
	if err := s.validateDish(ctx, dish, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.dishes.Create(ctx, dish); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A dish with this name already exists")
		}
		return nil, apperrors.Internal("Failed to create dish", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Dish created", zap.String("dish_id", dish.ID.String()), zap.String("slug", dish.Slug))
	return s.GetDish(ctx, dish.ID, true)
}

// UpdateDish replaces the dish definition. Stock is overwritten with the
// requested absolute value.
func (s *CatalogService) UpdateDish(ctx context.Context, id uuid.UUID, req models.DishRequest) (*models.Dish, error) {
	dish, err := s.GetDish(ctx, id, true)
	if err != nil {
		return nil, err
	}
	applyDishRequest(dish, req)
	if err := s.validateDish(ctx, dish, id); err != nil {
		return nil, err
	}
	if err := s.dishes.Update(ctx, dish); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("A dish with this name already exists")
		}
		return nil, apperrors.Internal("Failed to update dish", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Dish updated",
		zap.String("dish_id", id.String()),
		zap.Int("stock_quantity", dish.StockQuantity),
		zap.Bool("is_available", dish.IsAvailable),
	)
	return s.GetDish(ctx, id, true)
}

func applyDishRequest(dish *models.Dish, req models.DishRequest) {
	dish.Name = strings.TrimSpace(req.Name)
	dish.Slug = models.Slugify(req.Name)
	dish.Description = req.Description
	dish.PriceCents = req.PriceCents
	dish.CategoryID = req.CategoryID
	dish.IsAvailable = req.IsAvailable == nil || *req.IsAvailable
	dish.StockQuantity = req.StockQuantity
	dish.LowStockThreshold = models.DefaultLowStockThreshold
	if req.LowStockThreshold != nil {
		dish.LowStockThreshold = *req.LowStockThreshold
	}
	dish.PreparationTime = req.PreparationTime
	if dish.PreparationTime == 0 {
		dish.PreparationTime = models.DefaultPreparationTime
	}
	dish.Ingredients = req.Ingredients
	dish.IsSpicy = req.IsSpicy
	dish.IsVegetarian = req.IsVegetarian
	dish.Calories = req.Calories
	dish.Category = nil
}

func (s *CatalogService) validateDish(ctx context.Context, dish *models.Dish, exclude uuid.UUID) error {
	if dish.PriceCents <= 0 {
		return apperrors.Validation("Price must be greater than zero")
	}
	if dish.StockQuantity < 0 {
		return apperrors.Validation("Stock quantity cannot be negative")
	}
	if dish.Slug == "" {
		return apperrors.Validation("Name must contain letters or digits")
	}
	if _, err := s.GetCategory(ctx, dish.CategoryID, true); err != nil {
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return apperrors.Validation("Category does not exist").With("category_id", dish.CategoryID.String())
		}
		return err
	}
	taken, err := s.dishes.SlugTaken(ctx, dish.Slug, exclude)
	if err != nil {
		return apperrors.Internal("Failed to validate dish", err)
	}
	if taken {
		return apperrors.Conflict("A dish with this name already exists").With("slug", dish.Slug)
	}
	return nil
}

func (s *CatalogService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*models.Dish, error) {
	if err := s.dishes.SetAvailability(ctx, id, available); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrDishNotFound.With("dish_id", id.String())
		}
		return nil, apperrors.Internal("Failed to update availability", err)
	}
	s.cache.Invalidate(ctx)
	return s.GetDish(ctx, id, true)
}

// DeleteDish removes a dish and its ratings unless an order references it.
func (s *CatalogService) DeleteDish(ctx context.Context, id uuid.UUID) error {
	referenced, err := s.dishes.ReferencedByOrders(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to delete dish", err)
	}
	if referenced {
		return apperrors.ErrReferencedByOrder.
			WithMessage("Dish is referenced by existing orders").
			With("dish_id", id.String())
	}
	if err := s.dishes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrDishNotFound.With("dish_id", id.String())
		}
		return apperrors.Internal("Failed to delete dish", err)
	}
	s.cache.Invalidate(ctx)
	s.logger.Info("Dish deleted", zap.String("dish_id", id.String()))
	return nil
}

func (s *CatalogService) DishStats(ctx context.Context) (*models.DishStats, error) {
	stats, err := s.dishes.Stats(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load dish stats", err)
	}
	return stats, nil
}

func (s *CatalogService) LowStock(ctx context.Context) ([]models.Dish, error) {
	dishes, err := s.dishes.LowStock(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to load low stock dishes", err)
	}
	return dishes, nil
}
