package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StatsController struct {
	service StatsServiceAPI
	logger  *zap.Logger
}

func NewStatsController(s StatsServiceAPI, logger *zap.Logger) *StatsController {
	return &StatsController{service: s, logger: logger}
}

func (ctrl *StatsController) Homepage(c *gin.Context) {
	stats, err := ctrl.service.Homepage(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to compute homepage stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ctrl *StatsController) Dashboard(c *gin.Context) {
	stats, err := ctrl.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to compute dashboard stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
