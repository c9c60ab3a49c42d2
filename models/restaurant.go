package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Restaurant is the public profile of the venue. Opening and closing
// times are wall clock "HH:MM" values.
type Restaurant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Address     string    `gorm:"type:text;not null" json:"address"`
	Phone       string    `gorm:"type:varchar(15);not null" json:"phone"`
	Email       string    `gorm:"type:varchar(254);not null" json:"email"`
	OpeningTime string    `gorm:"type:varchar(5);not null" json:"opening_time"`
	ClosingTime string    `gorm:"type:varchar(5);not null" json:"closing_time"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Restaurant) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ValidClock accepts a 24 hour "HH:MM" time.
func ValidClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}
