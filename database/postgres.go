package database

import (
	"fmt"
	"time"

	"github.com/yashrajoria/restaurant-backend/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Config selects and locates the relational store.
type Config struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	TimeZone   string
	SQLitePath string
	MaxRetries int
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

// Models returns every persisted model in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Customer{},
		&models.AdminProfile{},
		&models.Category{},
		&models.Dish{},
		&models.DishRating{},
		&models.Order{},
		&models.OrderItem{},
		&models.CheckoutSession{},
		&models.Notification{},
		&models.Restaurant{},
	}
}

// GormConfig is shared by every connection so unique violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func open(cfg Config) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "", "postgres":
		return gorm.Open(postgres.Open(cfg.dsn()), GormConfig())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// OpenSQLite opens a file backed sqlite database with foreign keys enforced.
// Writes are serialized over a single connection.
func OpenSQLite(path string) (*gorm.DB, error) {
	return openSQLite(path, "?_foreign_keys=on&_busy_timeout=5000", 1)
}

// OpenSQLitePool opens a WAL mode sqlite database served by conns
// connections. Transactions take the write lock when they begin, so
// concurrent writers queue on the busy timeout instead of failing.
func OpenSQLitePool(path string, conns int) (*gorm.DB, error) {
	if conns < 2 {
		conns = 2
	}
	return openSQLite(path, "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", conns)
}

func openSQLite(path, params string, conns int) (*gorm.DB, error) {
	if path == "" {
		path = "restaurant.db"
	}
	db, err := gorm.Open(sqlite.Open(path+params), GormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(conns)
	sqlDB.SetMaxIdleConns(conns)
	return db, nil
}

// Connect opens the configured database, retrying with a linear backoff,
// and migrates the schema.
func Connect(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 10
	}

	var db *gorm.DB
	var err error

	for i := 0; i < retries; i++ {
		db, err = open(cfg)
		if err == nil {
			if cfg.Driver != "sqlite" {
				sqlDB, poolErr := db.DB()
				if poolErr == nil {
					sqlDB.SetMaxOpenConns(25)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
				}
			}

			logger.Info("Connected to database", zap.String("driver", cfg.Driver))

			if err := db.AutoMigrate(Models()...); err != nil {
				return nil, fmt.Errorf("AutoMigrate failed: %w", err)
			}
			DB = db
			return db, nil
		}

		logger.Warn("DB connection failed, retrying",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		time.Sleep(time.Duration(i+1) * 2 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
