package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
)

// respondError writes err to the client. Internal and upstream failures are
// logged with the request id since their message is hidden from the caller.
func respondError(c *gin.Context, log *zap.Logger, msg string, err error) {
	appErr := apperrors.From(err)
	if !appErr.Public() {
		logger.For(c, log).Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}
	apperrors.Respond(c, appErr)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apperrors.Respond(c, bindError(err))
		return false
	}
	return true
}
