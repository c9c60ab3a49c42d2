package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/yashrajoria/restaurant-backend/controllers"
	"github.com/yashrajoria/restaurant-backend/database"
	"github.com/yashrajoria/restaurant-backend/events"
	"github.com/yashrajoria/restaurant-backend/middleware"
	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
	"github.com/yashrajoria/restaurant-backend/repository"
	"github.com/yashrajoria/restaurant-backend/routes"
	"github.com/yashrajoria/restaurant-backend/sender"
	"github.com/yashrajoria/restaurant-backend/services"
)

const serviceName = "restaurant-backend"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// AWS is optional: without it CloudWatch stays off and SNS is unavailable.
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var cwWriter *aws_pkg.CloudWatchLogsClient
	if awsErr == nil && os.Getenv("CLOUDWATCH_ENABLED") == "true" {
		if w, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err == nil {
			cwWriter = w
		}
	}
	var log *zap.Logger
	if cwWriter != nil && cwWriter.IsEnabled() {
		log = logger.InitializeWithWriter(os.Getenv("ENV"), cwWriter)
	} else {
		log = logger.Initialize(os.Getenv("ENV"))
	}
	defer log.Sync()
	if awsErr != nil {
		log.Warn("AWS config unavailable, CloudWatch and SNS disabled", zap.Error(awsErr))
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// --- 1. Infrastructure ---

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("Redis unavailable, sessions and popular dish cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var cache services.PopularCache = services.NoopPopularCache{}
	var sessions services.SessionStore
	if redisClient != nil {
		cache = services.NewRedisPopularCache(redisClient, log)
		sessions = services.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	}

	var metricsClient *aws_pkg.MetricsClient
	if awsErr == nil {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg)
	}

	publisher, err := newPublisher(cfg, awsCfg, awsErr, log)
	if err != nil {
		log.Fatal("Failed to configure event bus", zap.Error(err))
	}
	emitter := events.NewEmitter(publisher, log)

	// --- 2. Dependency Injection (Wiring the layers together) ---

	store := repository.NewStore(db)
	metrics := services.NewMetrics(metricsClient)
	notifications := services.NewNotificationService(store.Notifications, store.Admins, log)
	catalog := services.NewCatalogService(store, cache, log)
	orders := services.NewOrderService(services.OrderServiceDeps{
		Store:    store,
		Notifier: notifications,
		Emitter:  emitter,
		Cache:    cache,
		Metrics:  metrics,
		Logger:   log,
	})
	gateway := services.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Timeout)
	payments := services.NewPaymentService(store, gateway, orders, notifications, metrics, services.PaymentConfig{
		Currency:         cfg.Currency,
		SuccessURL:       cfg.Stripe.SuccessURL,
		CancelURL:        cfg.Stripe.CancelURL,
		PublishableKey:   cfg.Stripe.PublishableKey,
		DeliveryFeeCents: cfg.DeliveryFeeCents,
	}, log)
	ratings := services.NewRatingService(store, metrics, log)
	restaurants := services.NewRestaurantService(store, log)
	stats := services.NewStatsService(store, log)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	gate := services.NewAdminGate(store, log)
	if err := gate.Bootstrap(ctx, cfg.AdminEmails); err != nil {
		log.Error("Failed to bootstrap admin profiles", zap.Error(err))
	}
	emailSender, smsSender := newSenders(cfg, log)
	accounts := services.NewAccountService(services.AccountServiceDeps{
		Store:    store,
		Tokens:   tokens,
		Sessions: sessions,
		Gate:     gate,
		Email:    emailSender,
		SMS:      smsSender,
		Config:   services.AccountConfig{ExposeCodes: cfg.ExposeVerificationCodes},
		Logger:   log,
	})

	if err := controllers.RegisterValidators(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}
	validator := controllers.NewRequestValidator()

	// --- 3. HTTP Server & Middleware ---

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(log),
		middleware.Metrics(metricsClient, serviceName),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Timeout(30*time.Second),
		apperrors.Middleware(),
	)

	// --- 4. Route Registration ---

	authLimiter := middleware.NewRateLimiter(ctx, rate.Every(time.Second), 10, 10*time.Minute)
	resolver := middleware.NewAuthenticationResolver(middleware.Strategies(tokens, sessions, cfg.TrustGatewayHeaders)...)
	routes.RegisterRoutes(r, routes.Controllers{
		Auth: controllers.NewAuthController(accounts, controllers.CookieConfig{
			MaxAge: cfg.SessionTTL,
			Secure: cfg.IsProduction(),
		}, log),
		Catalog:       controllers.NewCatalogController(catalog, validator, log),
		Orders:        controllers.NewOrderController(orders, validator, log),
		Payments:      controllers.NewPaymentController(payments, log),
		Ratings:       controllers.NewRatingController(ratings, validator, log),
		Notifications: controllers.NewNotificationController(notifications, validator, log),
		Restaurants:   controllers.NewRestaurantController(restaurants, validator, log),
		Stats:         controllers.NewStatsController(stats, log),
	}, routes.Guards{
		Resolver:    resolver,
		Admins:      gate,
		AuthLimiter: authLimiter.Middleware(),
		Logger:      log,
	})
	r.GET("/health", healthHandler(db, redisClient))

	// --- 5. Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Restaurant backend starting",
			zap.String("port", cfg.Port),
			zap.String("db_driver", cfg.DB.Driver),
			zap.String("event_bus", cfg.EventBus),
			zap.Bool("sessions", sessions != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down restaurant backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()
	notifications.Wait()

	if err := emitter.Close(); err != nil {
		log.Error("Failed to close event publisher", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Restaurant backend stopped gracefully")
}

func newPublisher(cfg *Config, awsCfg sdkaws.Config, awsErr error, log *zap.Logger) (events.Publisher, error) {
	switch cfg.EventBus {
	case "sns":
		if awsErr != nil {
			return nil, awsErr
		}
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.OrderTopicArn), nil
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log), nil
	default:
		return events.NoopPublisher{}, nil
	}
}

// newSenders returns the configured SMTP and Twilio senders. Unconfigured
// channels stay nil and fall back to logging.
func newSenders(cfg *Config, log *zap.Logger) (sender.EmailSender, sender.SMSSender) {
	var email sender.EmailSender
	var sms sender.SMSSender
	if cfg.SMTP.Host != "" {
		if s, err := sender.NewSMTPSender(cfg.SMTP); err != nil {
			log.Warn("SMTP sender disabled", zap.Error(err))
		} else {
			email = s
		}
	}
	if cfg.Twilio.AccountSID != "" {
		if s, err := sender.NewTwilioSender(cfg.Twilio); err != nil {
			log.Warn("Twilio sender disabled", zap.Error(err))
		} else {
			sms = s
		}
	}
	return email, sms
}

func healthHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "OK", "database": "up"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"], status["database"] = "DEGRADED", "down"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "up"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
			}
		}
		c.JSON(code, status)
	}
}
