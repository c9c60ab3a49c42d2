package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yashrajoria/restaurant-backend/database"
	"github.com/yashrajoria/restaurant-backend/models"
	"github.com/yashrajoria/restaurant-backend/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return gormDB, mock
}

func setupSQLite(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	return migrate(t, db)
}

// setupSQLitePool backs the store with several WAL connections so
// goroutines really run their transactions side by side.
func setupSQLitePool(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLitePool(filepath.Join(t.TempDir(), "repo.db"), 8)
	require.NoError(t, err)
	return migrate(t, db)
}

func migrate(t *testing.T, db *gorm.DB) *repository.Store {
	t.Helper()
	require.NoError(t, db.AutoMigrate(database.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewStore(db)
}

func seedDish(t *testing.T, store *repository.Store, name string, priceCents int64, stock int) *models.Dish {
	t.Helper()
	ctx := context.Background()
	category := &models.Category{Name: name + " category", Slug: models.Slugify(name + " category"), IsActive: true}
	require.NoError(t, store.Categories.Create(ctx, category))
	dish := &models.Dish{
		Name:              name,
		Slug:              models.Slugify(name),
		PriceCents:        priceCents,
		CategoryID:        category.ID,
		IsAvailable:       true,
		StockQuantity:     stock,
		LowStockThreshold: models.DefaultLowStockThreshold,
		PreparationTime:   15,
	}
	require.NoError(t, store.Dishes.Create(ctx, dish))
	return dish
}

func seedCustomer(t *testing.T, store *repository.Store, username string) (*models.User, *models.Customer) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users.CreateUser(ctx, user))
	customer, err := store.Users.GetOrCreateCustomer(ctx, user.ID)
	require.NoError(t, err)
	return user, customer
}
