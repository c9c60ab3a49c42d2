package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLowStockThreshold = 5
	DefaultPreparationTime   = 15
)

// Category groups dishes on the menu.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	Dishes      []Dish    `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	DishesCount          int64 `gorm:"->;-:migration" json:"dishes_count"`
	AvailableDishesCount int64 `gorm:"->;-:migration" json:"available_dishes_count"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Dish is a sellable menu item with a price and a stock counter.
type Dish struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string       `gorm:"type:varchar(200);not null" json:"name"`
	Slug              string       `gorm:"type:varchar(220);uniqueIndex;not null" json:"slug"`
	Description       string       `gorm:"type:text" json:"description"`
	PriceCents        int64        `gorm:"not null;check:price_cents > 0" json:"price_cents"`
	CategoryID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"category_id"`
	Category          *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsAvailable       bool         `gorm:"not null" json:"is_available"`
	StockQuantity     int          `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	LowStockThreshold int          `gorm:"not null" json:"low_stock_threshold"`
	PreparationTime   int          `gorm:"not null" json:"preparation_time"`
	Ingredients       string       `gorm:"type:text" json:"ingredients"`
	IsSpicy           bool         `gorm:"not null;default:false" json:"is_spicy"`
	IsVegetarian      bool         `gorm:"not null;default:false" json:"is_vegetarian"`
	Calories          *int         `json:"calories,omitempty"`
	Ratings           []DishRating `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	AverageRating float64 `gorm:"->;-:migration" json:"average_rating"`
	RatingCount   int64   `gorm:"->;-:migration" json:"rating_count"`
}

func (d *Dish) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Dish) IsInStock() bool {
	return d.StockQuantity > 0
}

func (d *Dish) IsLowStock() bool {
	return d.StockQuantity <= d.LowStockThreshold
}

// Slugify lowercases s and collapses every run of non alphanumeric
// characters into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// PopularDish is a read model for the most ordered dishes.
type PopularDish struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PriceCents   int64     `json:"price_cents"`
	TotalOrdered int64     `json:"total_ordered"`
	OrderCount   int64     `json:"order_count"`
}

// DishStats summarizes the menu for the admin dashboard.
type DishStats struct {
	TotalDishes      int64 `json:"total_dishes"`
	AvailableDishes  int64 `json:"available_dishes"`
	VegetarianDishes int64 `json:"vegetarian_dishes"`
	SpicyDishes      int64 `json:"spicy_dishes"`
}
