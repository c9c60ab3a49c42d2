package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func setBaseEnv(t *testing.T) {
	t.Setenv("AWS_USE_SECRETS", "false")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "restaurant")
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("JWT_SECRET", "secret")
	for _, k := range []string{"PUBLIC_URL", "STRIPE_SUCCESS_URL", "EVENT_BUS", "DELIVERY_FEE_CENTS", "CURRENCY", "JWT_TTL", "ADMIN_EMAILS", "TRUST_GATEWAY_HEADERS"} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("ADMIN_EMAILS", " chef@example.com, ,owner@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.EqualValues(t, 399, cfg.DeliveryFeeCents)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, "none", cfg.EventBus)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "http://localhost:9000/api/stripe/success?session_id={CHECKOUT_SESSION_ID}", cfg.Stripe.SuccessURL)
	assert.Equal(t, []string{"chef@example.com", "owner@example.com"}, cfg.AdminEmails)
	assert.False(t, cfg.TrustGatewayHeaders)
}

func TestLoadConfig_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret":   {"JWT_SECRET": ""},
		"incomplete postgres":  {"POSTGRES_HOST": ""},
		"unknown driver":       {"DB_DRIVER": "mysql"},
		"kafka without broker": {"EVENT_BUS": "kafka", "KAFKA_BROKERS": ""},
		"sns without topic":    {"EVENT_BUS": "sns", "ORDER_SNS_TOPIC_ARN": ""},
		"bad delivery fee":     {"DELIVERY_FEE_CENTS": "-1"},
		"bad duration":         {"JWT_TTL": "forever"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_SQLiteNeedsNoPostgres(t *testing.T) {
	t.Setenv("AWS_USE_SECRETS", "false")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "restaurant.db", cfg.DB.SQLitePath)
}

func TestApplySecrets_OverridesOnlyPresentValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")
	cfg, err := configFromEnv()
	require.NoError(t, err)

	applySecrets(context.Background(), cfg, fakeSecrets{
		dbSecretName:     `{"POSTGRES_PASSWORD":"from-secrets","POSTGRES_HOST":""}`,
		stripeSecretName: `{"STRIPE_SECRET_KEY":"sk_secret"}`,
	})

	assert.Equal(t, "from-secrets", cfg.DB.Password)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "sk_secret", cfg.Stripe.SecretKey)
	assert.Equal(t, "whsec_env", cfg.Stripe.WebhookSecret)

	applySecrets(context.Background(), cfg, fakeSecrets{dbSecretName: "not json"})
	assert.Equal(t, "from-secrets", cfg.DB.Password)
}
