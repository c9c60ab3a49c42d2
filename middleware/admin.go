package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/yashrajoria/restaurant-backend/pkg/errors"
	"github.com/yashrajoria/restaurant-backend/pkg/logger"
)

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AdminOnly lets a request through only when gate confirms the caller is
// an admin. It must run after RequireAuth.
func AdminOnly(gate AdminChecker, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			apperrors.Respond(c, apperrors.ErrAuthRequired)
			return
		}
		isAdmin, err := gate.IsAdmin(c.Request.Context(), id.UserID)
		if err != nil {
			logger.For(c, log).Error("Admin check failed", zap.String("user_id", id.UserID.String()), zap.Error(err))
			apperrors.Respond(c, err)
			return
		}
		if !isAdmin {
			logger.For(c, log).Warn("Admin access denied",
				zap.String("user_id", id.UserID.String()),
				zap.String("path", c.Request.URL.Path),
			)
			apperrors.Respond(c, apperrors.ErrAdminRequired)
			return
		}
		c.Next()
	}
}
