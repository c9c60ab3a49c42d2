package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminRepository answers admin membership questions. Results are never
// cached.
type AdminRepository interface {
	HasProfile(ctx context.Context, email string) (bool, error)
	EnsureProfile(ctx context.Context, email string, superAdmin bool) error
	StaffUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

type GormAdminRepository struct {
	db *gorm.DB
}

func NewGormAdminRepository(db *gorm.DB) AdminRepository {
	return &GormAdminRepository{db: db}
}

func (r *GormAdminRepository) HasProfile(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdminProfile{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// EnsureProfile creates an admin profile for email unless one exists.
func (r *GormAdminRepository) EnsureProfile(ctx context.Context, email string, superAdmin bool) error {
	profile := &models.AdminProfile{Email: email, IsSuperAdmin: superAdmin}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(profile).Error
}

// StaffUserIDs lists the users who receive staff notifications.
func (r *GormAdminRepository) StaffUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_staff = ? OR is_superuser = ? OR email IN (?)",
			true, true, r.db.Model(&models.AdminProfile{}).Select("email")).
		Pluck("id", &ids).Error
	return ids, err
}
