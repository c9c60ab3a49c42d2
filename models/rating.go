package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DishRating is one customer's score for a dish. A customer may rate the
// same dish any number of times.
type DishRating struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DishID     uuid.UUID `gorm:"type:uuid;not null;index" json:"dish_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	Rating     int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *DishRating) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

const (
	MinRating = 1
	MaxRating = 5
)
