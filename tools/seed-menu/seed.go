package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yashrajoria/restaurant-backend/models"
	"github.com/yashrajoria/restaurant-backend/repository"
)

type Menu struct {
	Admins     []string       `yaml:"admins"`
	Categories []MenuCategory `yaml:"categories"`
}

type MenuCategory struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Active      *bool      `yaml:"active"`
	Dishes      []MenuDish `yaml:"dishes"`
}

type MenuDish struct {
	Name              string  `yaml:"name"`
	Description       string  `yaml:"description"`
	Price             float64 `yaml:"price"`
	Stock             int     `yaml:"stock"`
	LowStockThreshold *int    `yaml:"low_stock_threshold"`
	PreparationTime   int     `yaml:"preparation_time"`
	Ingredients       string  `yaml:"ingredients"`
	Vegetarian        bool    `yaml:"vegetarian"`
	Spicy             bool    `yaml:"spicy"`
	Calories          *int    `yaml:"calories"`
	Available         *bool   `yaml:"available"`
}

type Summary struct {
	CategoriesCreated int
	CategoriesUpdated int
	DishesCreated     int
	DishesUpdated     int
	Admins            int
}

// ParseMenu decodes and validates a YAML menu. Unknown keys are rejected.
func ParseMenu(r io.Reader) (*Menu, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var menu Menu
	if err := dec.Decode(&menu); err != nil {
		return nil, fmt.Errorf("decode menu: %w", err)
	}
	for _, c := range menu.Categories {
		if models.Slugify(c.Name) == "" {
			return nil, fmt.Errorf("category %q has no usable name", c.Name)
		}
		for _, d := range c.Dishes {
			if models.Slugify(d.Name) == "" {
				return nil, fmt.Errorf("dish %q in %q has no usable name", d.Name, c.Name)
			}
			if d.Price <= 0 {
				return nil, fmt.Errorf("dish %q must have a positive price", d.Name)
			}
			if d.Stock < 0 {
				return nil, fmt.Errorf("dish %q has negative stock", d.Name)
			}
		}
	}
	return &menu, nil
}

// Seed upserts categories and dishes by slug and ensures the admin
// profiles exist, all in one transaction.
func Seed(ctx context.Context, db *gorm.DB, menu *Menu, log *zap.Logger) (*Summary, error) {
	summary := &Summary{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, mc := range menu.Categories {
			category, created, err := upsertCategory(tx, mc)
			if err != nil {
				return err
			}
			if created {
				summary.CategoriesCreated++
			} else {
				summary.CategoriesUpdated++
			}
			for _, md := range mc.Dishes {
				created, err := upsertDish(tx, category.ID, md)
				if err != nil {
					return err
				}
				if created {
					summary.DishesCreated++
				} else {
					summary.DishesUpdated++
				}
			}
			log.Info("Seeded category", zap.String("slug", category.Slug), zap.Int("dishes", len(mc.Dishes)))
		}

		admins := repository.NewGormAdminRepository(tx)
		for _, email := range menu.Admins {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				continue
			}
			if err := admins.EnsureProfile(ctx, email, false); err != nil {
				return fmt.Errorf("admin %s: %w", email, err)
			}
			summary.Admins++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func upsertCategory(tx *gorm.DB, mc MenuCategory) (*models.Category, bool, error) {
	slug := models.Slugify(mc.Name)
	var category models.Category
	err := tx.Where("slug = ?", slug).First(&category).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return nil, false, fmt.Errorf("category %s: %w", slug, err)
	}

	category.Name = strings.TrimSpace(mc.Name)
	category.Slug = slug
	category.Description = mc.Description
	category.IsActive = mc.Active == nil || *mc.Active
	if err := tx.Save(&category).Error; err != nil {
		return nil, false, fmt.Errorf("category %s: %w", slug, err)
	}
	return &category, created, nil
}

func upsertDish(tx *gorm.DB, categoryID uuid.UUID, md MenuDish) (bool, error) {
	slug := models.Slugify(md.Name)
	var dish models.Dish
	err := tx.Where("slug = ?", slug).First(&dish).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, fmt.Errorf("dish %s: %w", slug, err)
	}

	dish.Name = strings.TrimSpace(md.Name)
	dish.Slug = slug
	dish.Description = md.Description
	dish.PriceCents = int64(math.Round(md.Price * 100))
	dish.StockQuantity = md.Stock
	dish.LowStockThreshold = models.DefaultLowStockThreshold
	if md.LowStockThreshold != nil {
		dish.LowStockThreshold = *md.LowStockThreshold
	}
	dish.PreparationTime = models.DefaultPreparationTime
	if md.PreparationTime > 0 {
		dish.PreparationTime = md.PreparationTime
	}
	dish.Ingredients = md.Ingredients
	dish.IsVegetarian = md.Vegetarian
	dish.IsSpicy = md.Spicy
	dish.Calories = md.Calories
	dish.IsAvailable = md.Available == nil || *md.Available
	dish.CategoryID = categoryID
	if err := tx.Omit("Category").Save(&dish).Error; err != nil {
		return false, fmt.Errorf("dish %s: %w", slug, err)
	}
	return created, nil
}
