package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yashrajoria/restaurant-backend/models"
	"gorm.io/gorm"
)

// UserRepository defines data access for users and their customer profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	PhoneTaken(ctx context.Context, phone string) (bool, error)
	PhoneTakenByOther(ctx context.Context, phone string, customerID uuid.UUID) (bool, error)
	UpdateName(ctx context.Context, userID uuid.UUID, firstName, lastName string) error
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetOrCreateCustomer(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
	SaveCustomer(ctx context.Context, customer *models.Customer) error
	CustomerStats(ctx context.Context) (*models.CustomerStats, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindUserByLogin matches login against the username, then the email.
func (r *GormUserRepository) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).
			Where("email = ?", strings.ToLower(strings.TrimSpace(login))).
			First(&user).Error
	}
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormUserRepository) exists(ctx context.Context, model any, where string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where(where, arg).Count(&count).Error
	return count > 0, err
}

func (r *GormUserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, &models.User{}, "username = ?", username)
}

func (r *GormUserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, &models.User{}, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) PhoneTaken(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, &models.Customer{}, "phone = ?", phone)
}

func (r *GormUserRepository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(customer).Error)
}

func (r *GormUserRepository) FindCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

// FindCustomerByID loads a customer together with its user.
func (r *GormUserRepository) FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

// GetOrCreateCustomer returns the user's customer profile, creating an
// empty one on first use.
func (r *GormUserRepository) GetOrCreateCustomer(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	customer, err := r.FindCustomerByUserID(ctx, userID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	customer = &models.Customer{UserID: userID}
	if err := r.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return r.FindCustomerByUserID(ctx, userID)
		}
		return nil, err
	}
	return customer, nil
}

func (r *GormUserRepository) SaveCustomer(ctx context.Context, customer *models.Customer) error {
	return translate(r.db.WithContext(ctx).Omit("User").Save(customer).Error)
}

func (r *GormUserRepository) CustomerStats(ctx context.Context) (*models.CustomerStats, error) {
	var stats models.CustomerStats
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Distinct("customer_id").
		Count(&stats.CustomersWithOrders).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// PhoneTakenByOther reports whether a customer other than customerID
// already uses phone.
func (r *GormUserRepository) PhoneTakenByOther(ctx context.Context, phone string, customerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("phone = ? AND id <> ?", phone, customerID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormUserRepository) UpdateName(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"first_name": firstName, "last_name": lastName})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
