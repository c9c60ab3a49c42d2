package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/middleware"
	"github.com/yashrajoria/restaurant-backend/models"
)

type OrderController struct {
	service   OrderServiceAPI
	validator *RequestValidator
	logger    *zap.Logger
}

func NewOrderController(s OrderServiceAPI, v *RequestValidator, logger *zap.Logger) *OrderController {
	return &OrderController{service: s, validator: v, logger: logger}
}

// PlaceOrder creates a cash order for the caller and reserves its stock.
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := ctrl.service.PlaceOrder(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to place order", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (ctrl *OrderController) ListMine(c *gin.Context) {
	page, perPage, err := ctrl.validator.ParsePagination(c)
	if err != nil {
		respondError(c, ctrl.logger, "Invalid pagination", err)
		return
	}
	orders, err := ctrl.service.ListMine(c.Request.Context(), middleware.GetUserID(c), page, perPage)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctrl *OrderController) GetMine(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid order ID", err)
		return
	}
	order, err := ctrl.service.GetMine(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListAll is the staff view of every order, optionally narrowed by ?status=.
func (ctrl *OrderController) ListAll(c *gin.Context) {
	page, perPage, err := ctrl.validator.ParsePagination(c)
	if err != nil {
		respondError(c, ctrl.logger, "Invalid pagination", err)
		return
	}
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	orders, err := ctrl.service.ListAll(c.Request.Context(), status, page, perPage)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch orders", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid order ID", err)
		return
	}
	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := ctrl.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to update order status", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (ctrl *OrderController) Stats(c *gin.Context) {
	stats, err := ctrl.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to compute order stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ctrl *OrderController) CustomerStats(c *gin.Context) {
	stats, err := ctrl.service.CustomerStats(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to compute customer stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
