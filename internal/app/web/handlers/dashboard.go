package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplymarket_api/internal/dashboard"
)

type DashboardHandler struct {
	dashboard *dashboard.Service
}

func NewDashboardHandler(svc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: svc}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.ForUser(userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) Market(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.Market())
}
