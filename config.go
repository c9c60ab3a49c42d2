package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yashrajoria/restaurant-backend/database"
	aws_pkg "github.com/yashrajoria/restaurant-backend/pkg/aws"
	"github.com/yashrajoria/restaurant-backend/sender"
)

const (
	dbSecretName     = "restaurant/DB_CREDENTIALS"
	stripeSecretName = "restaurant/STRIPE"
)

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Timeout        time.Duration
	SuccessURL     string
	CancelURL      string
}

type Config struct {
	Port                    string
	Env                     string
	DB                      database.Config
	RedisURL                string
	JWTSecret               string
	JWTTTL                  time.Duration
	SessionTTL              time.Duration
	TrustGatewayHeaders     bool
	Stripe                  StripeConfig
	Currency                string
	DeliveryFeeCents        int64
	AdminEmails             []string
	EventBus                string
	OrderTopicArn           string
	KafkaBrokers            []string
	KafkaOrderTopic         string
	AllowedOrigins          string
	SMTP                    sender.SMTPConfig
	Twilio                  sender.TwilioConfig
	ExposeVerificationCodes bool
	CloudWatchEnabled       bool
}

// LoadConfig reads the environment and, when AWS_USE_SECRETS=true, lets
// Secrets Manager override the database credentials and Stripe keys.
func LoadConfig() (*Config, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() (*Config, error) {
	port := getEnv("PORT", "8000")
	deliveryFee, err := strconv.ParseInt(getEnv("DELIVERY_FEE_CENTS", "399"), 10, 64)
	if err != nil || deliveryFee < 0 {
		return nil, fmt.Errorf("DELIVERY_FEE_CENTS must be a non-negative integer")
	}
	jwtTTL, err := getDuration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getDuration("SESSION_TTL", 14*24*time.Hour)
	if err != nil {
		return nil, err
	}
	stripeTimeout, err := getDuration("STRIPE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	publicURL := strings.TrimSuffix(getEnv("PUBLIC_URL", "http://localhost:"+port), "/")

	return &Config{
		Port: port,
		Env:  getEnv("ENV", "development"),
		DB: database.Config{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       os.Getenv("POSTGRES_HOST"),
			Port:       getEnv("POSTGRES_PORT", "5432"),
			User:       os.Getenv("POSTGRES_USER"),
			Password:   os.Getenv("POSTGRES_PASSWORD"),
			Name:       os.Getenv("POSTGRES_DB"),
			SSLMode:    getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone:   getEnv("POSTGRES_TIMEZONE", "UTC"),
			SQLitePath: getEnv("SQLITE_PATH", "restaurant.db"),
		},
		RedisURL:            os.Getenv("REDIS_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              jwtTTL,
		SessionTTL:          sessionTTL,
		TrustGatewayHeaders: os.Getenv("TRUST_GATEWAY_HEADERS") == "true",
		Stripe: StripeConfig{
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:  os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Timeout:        stripeTimeout,
			SuccessURL:     getEnv("STRIPE_SUCCESS_URL", publicURL+"/api/stripe/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:      getEnv("STRIPE_CANCEL_URL", publicURL+"/api/stripe/cancel"),
		},
		Currency:         strings.ToLower(getEnv("CURRENCY", "usd")),
		DeliveryFeeCents: deliveryFee,
		AdminEmails:      splitList(os.Getenv("ADMIN_EMAILS")),
		EventBus:         strings.ToLower(getEnv("EVENT_BUS", "none")),
		OrderTopicArn:    os.Getenv("ORDER_SNS_TOPIC_ARN"),
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:  getEnv("KAFKA_ORDER_TOPIC", "restaurant.orders"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		SMTP: sender.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Twilio: sender.TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
		ExposeVerificationCodes: os.Getenv("EXPOSE_VERIFICATION_CODES") == "true",
		CloudWatchEnabled:       os.Getenv("CLOUDWATCH_ENABLED") == "true",
	}, nil
}

// applySecrets overrides fields from Secrets Manager. A missing or malformed
// secret keeps the environment values.
func applySecrets(ctx context.Context, cfg *Config, sm aws_pkg.SecretGetter) {
	if m, err := aws_pkg.GetSecretMap(ctx, sm, dbSecretName); err == nil {
		override(&cfg.DB.User, m["POSTGRES_USER"])
		override(&cfg.DB.Password, m["POSTGRES_PASSWORD"])
		override(&cfg.DB.Name, m["POSTGRES_DB"])
		override(&cfg.DB.Host, m["POSTGRES_HOST"])
		override(&cfg.DB.Port, m["POSTGRES_PORT"])
	}
	if m, err := aws_pkg.GetSecretMap(ctx, sm, stripeSecretName); err == nil {
		override(&cfg.Stripe.SecretKey, m["STRIPE_SECRET_KEY"])
		override(&cfg.Stripe.PublishableKey, m["STRIPE_PUBLISHABLE_KEY"])
		override(&cfg.Stripe.WebhookSecret, m["STRIPE_WEBHOOK_SECRET"])
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres":
		if c.DB.User == "" || c.DB.Password == "" || c.DB.Name == "" || c.DB.Host == "" {
			return fmt.Errorf("database config incomplete")
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.EventBus {
	case "none":
	case "sns":
		if c.OrderTopicArn == "" {
			return fmt.Errorf("ORDER_SNS_TOPIC_ARN is required when EVENT_BUS=sns")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENT_BUS=kafka")
		}
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
