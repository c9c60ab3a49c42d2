package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an authenticated identity. Customers and staff are both users.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Customer is the one-to-one profile of a User that places orders.
type Customer struct {
	ID                        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User                      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Phone                     *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	Address                   string     `gorm:"type:text" json:"address"`
	IsPhoneVerified           bool       `gorm:"not null;default:false" json:"is_phone_verified"`
	IsEmailVerified           bool       `gorm:"not null;default:false" json:"is_email_verified"`
	PhoneVerificationCode     *string    `gorm:"type:varchar(6)" json:"-"`
	EmailVerificationCode     *string    `gorm:"type:varchar(6)" json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	CreatedAt                 time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// AdminProfile marks an email address as authorized for the admin API.
type AdminProfile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	IsSuperAdmin bool      `gorm:"not null;default:false" json:"is_super_admin"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *AdminProfile) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return nil
}

// VerificationType selects the channel a verification code is bound to.
type VerificationType string

const (
	VerificationPhone VerificationType = "phone"
	VerificationEmail VerificationType = "email"
)

// ValidPhone accepts numbers written with digits, spaces, dashes, dots,
// parentheses and a leading plus, as long as they carry at least ten digits.
func ValidPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 10
}
