package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/middleware"
	"github.com/yashrajoria/restaurant-backend/models"
	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
)

// maxWebhookBody matches the payload limit Stripe documents for webhooks.
const maxWebhookBody = 65536

type PaymentController struct {
	service PaymentServiceAPI
	logger  *zap.Logger
}

func NewPaymentController(s PaymentServiceAPI, logger *zap.Logger) *PaymentController {
	return &PaymentController{service: s, logger: logger}
}

// CreateCheckoutSession opens a hosted Stripe checkout for the caller's cart.
// No order exists until the payment is reconciled.
func (pc *PaymentController) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	var email string
	if id, ok := middleware.CurrentIdentity(c); ok {
		email = id.Email
	}
	resp, err := pc.service.CreateCheckout(c.Request.Context(), middleware.GetUserID(c), email, req)
	if err != nil {
		respondError(c, pc.logger, "Failed to create checkout session", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Success handles the browser redirect back from Stripe. Anonymous callers
// only get the confirmation message.
func (pc *PaymentController) Success(c *gin.Context) {
	confirmation, err := pc.service.ConfirmRedirect(c.Request.Context(), c.Query("session_id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, pc.logger, "Failed to confirm payment", err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func (pc *PaymentController) Cancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Payment was cancelled. Your cart has been preserved."})
}

func (pc *PaymentController) Config(c *gin.Context) {
	key, err := pc.service.PublishableKey()
	if err != nil {
		respondError(c, pc.logger, "Stripe publishable key not configured", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publishable_key": key})
}

// StripeWebhook verifies and dispatches a Stripe event. Anything past the
// signature check is acknowledged so Stripe does not redeliver it.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("Failed to read request body"))
		return
	}
	if err := pc.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		logger.For(c, pc.logger).Warn("Stripe webhook rejected", zap.Error(err))
		respondError(c, pc.logger, "Stripe webhook failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
