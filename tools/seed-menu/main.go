package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/database"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var file, driver, sqlitePath string
	flag.StringVar(&file, "file", "menu.yaml", "YAML menu to load")
	flag.StringVar(&driver, "driver", envOr("DB_DRIVER", "postgres"), "database driver (postgres or sqlite)")
	flag.StringVar(&sqlitePath, "sqlite", envOr("SQLITE_PATH", "restaurant.db"), "sqlite database path")
	flag.Parse()

	log := logger.Initialize(os.Getenv("ENV"))
	defer log.Sync()

	f, err := os.Open(file)
	if err != nil {
		log.Fatal("Failed to open menu", zap.String("file", file), zap.Error(err))
	}
	defer f.Close()

	menu, err := ParseMenu(f)
	if err != nil {
		log.Fatal("Invalid menu", zap.String("file", file), zap.Error(err))
	}

	db, err := database.Connect(database.Config{
		Driver:     driver,
		Host:       os.Getenv("POSTGRES_HOST"),
		Port:       envOr("POSTGRES_PORT", "5432"),
		User:       os.Getenv("POSTGRES_USER"),
		Password:   os.Getenv("POSTGRES_PASSWORD"),
		Name:       os.Getenv("POSTGRES_DB"),
		SSLMode:    envOr("POSTGRES_SSLMODE", "disable"),
		TimeZone:   envOr("POSTGRES_TIMEZONE", "UTC"),
		SQLitePath: sqlitePath,
		MaxRetries: 3,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	summary, err := Seed(context.Background(), db, menu, log)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
	log.Info("Menu seeded",
		zap.Int("categories_created", summary.CategoriesCreated),
		zap.Int("categories_updated", summary.CategoriesUpdated),
		zap.Int("dishes_created", summary.DishesCreated),
		zap.Int("dishes_updated", summary.DishesUpdated),
		zap.Int("admins", summary.Admins),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
