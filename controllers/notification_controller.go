package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/middleware"
)

type NotificationController struct {
	service   NotificationServiceAPI
	validator *RequestValidator
	logger    *zap.Logger
}

func NewNotificationController(s NotificationServiceAPI, v *RequestValidator, logger *zap.Logger) *NotificationController {
	return &NotificationController{service: s, validator: v, logger: logger}
}

func (ctrl *NotificationController) List(c *gin.Context) {
	unread, err := parseBool(c, "unread")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid filter", err)
		return
	}
	notifications, err := ctrl.service.List(c.Request.Context(), middleware.GetUserID(c), unread != nil && *unread)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch notifications", err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (ctrl *NotificationController) MarkRead(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid notification ID", err)
		return
	}
	if err := ctrl.service.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, ctrl.logger, "Failed to mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (ctrl *NotificationController) MarkAllRead(c *gin.Context) {
	updated, err := ctrl.service.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, ctrl.logger, "Failed to mark notifications read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": updated})
}
