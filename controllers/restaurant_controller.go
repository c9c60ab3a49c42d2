package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
)

type RestaurantController struct {
	service   RestaurantServiceAPI
	validator *RequestValidator
	logger    *zap.Logger
}

func NewRestaurantController(s RestaurantServiceAPI, v *RequestValidator, logger *zap.Logger) *RestaurantController {
	return &RestaurantController{service: s, validator: v, logger: logger}
}

// Info returns the public restaurant profile.
func (ctrl *RestaurantController) Info(c *gin.Context) {
	restaurant, err := ctrl.service.Info(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to load restaurant information", err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

func (ctrl *RestaurantController) List(c *gin.Context) {
	restaurants, err := ctrl.service.List(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch restaurants", err)
		return
	}
	c.JSON(http.StatusOK, restaurants)
}

func (ctrl *RestaurantController) Get(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid restaurant ID", err)
		return
	}
	restaurant, err := ctrl.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch restaurant", err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

func (ctrl *RestaurantController) Create(c *gin.Context) {
	var req models.RestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := ctrl.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to create restaurant", err)
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}

func (ctrl *RestaurantController) Update(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid restaurant ID", err)
		return
	}
	var req models.RestaurantRequest
	if !bindJSON(c, &req) {
		return
	}
	restaurant, err := ctrl.service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to update restaurant", err)
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

func (ctrl *RestaurantController) Delete(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid restaurant ID", err)
		return
	}
	if err := ctrl.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.logger, "Service failed to delete restaurant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted successfully"})
}
