package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/yashrajoria/restaurant-backend/models"
)

// CheckoutSessionParams describes a hosted payment page for a cart.
type CheckoutSessionParams struct {
	CustomerEmail    string
	Lines            []models.CartLine
	DeliveryFeeCents int64
	Currency         string
	SuccessURL       string
	CancelURL        string
	Metadata         map[string]string
}

// GatewaySession is the part of a hosted checkout session this service
// reads.
type GatewaySession struct {
	ID            string
	URL           string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// PaymentGateway is the payment provider boundary.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*GatewaySession, error)
	GetCheckoutSession(ctx context.Context, id string) (*GatewaySession, error)
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

type StripeGateway struct {
	api        *client.API
	webhookKey string
	timeout    time.Duration
}

// NewStripeGateway builds a Stripe client that gives up after timeout and
// never retries on its own.
func NewStripeGateway(secretKey, webhookKey string, timeout time.Duration) *StripeGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, webhookKey: webhookKey, timeout: timeout}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (*GatewaySession, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	currency := strings.ToLower(p.Currency)
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.Lines)+1)
	for _, line := range p.Lines {
		lineItems = append(lineItems, lineItem(currency, line.DishName, line.UnitPriceCents, int64(line.Quantity)))
	}
	if p.DeliveryFeeCents > 0 {
		lineItems = append(lineItems, lineItem(currency, "Delivery Fee", p.DeliveryFeeCents, 1))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                lineItems,
		SuccessURL:               stripe.String(p.SuccessURL),
		CancelURL:                stripe.String(p.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return toGatewaySession(sess), nil
}

func lineItem(currency, name string, unitAmount, quantity int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(unitAmount),
		},
		Quantity: stripe.Int64(quantity),
	}
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*GatewaySession, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toGatewaySession(sess), nil
}

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret and decodes the event.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, g.webhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

func toGatewaySession(sess *stripe.CheckoutSession) *GatewaySession {
	return &GatewaySession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Metadata:      sess.Metadata,
	}
}
