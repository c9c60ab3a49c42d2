package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/middleware"
	"github.com/yashrajoria/restaurant-backend/models"
)

type RatingController struct {
	service   RatingServiceAPI
	validator *RequestValidator
	logger    *zap.Logger
}

func NewRatingController(s RatingServiceAPI, v *RequestValidator, logger *zap.Logger) *RatingController {
	return &RatingController{service: s, validator: v, logger: logger}
}

func (ctrl *RatingController) AddRating(c *gin.Context) {
	var req models.RatingRequest
	if !bindJSON(c, &req) {
		return
	}
	rating, err := ctrl.service.AddRating(c.Request.Context(), middleware.GetUserID(c), req.DishID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to add rating", err)
		return
	}
	c.JSON(http.StatusCreated, rating)
}

func (ctrl *RatingController) UpdateRating(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid rating ID", err)
		return
	}
	var req models.UpdateRatingRequest
	if !bindJSON(c, &req) {
		return
	}
	rating, err := ctrl.service.UpdateRating(c.Request.Context(), id, middleware.GetUserID(c), req.Rating, req.Comment)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to update rating", err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (ctrl *RatingController) ListMine(c *gin.Context) {
	ratings, err := ctrl.service.ListMyRatings(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch ratings", err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}
