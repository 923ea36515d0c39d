package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplymarket_api/internal/tins"
)

type TINHandler struct {
	tins *tins.Service
}

func NewTINHandler(svc *tins.Service) *TINHandler {
	return &TINHandler{tins: svc}
}

func (h *TINHandler) Register(c *gin.Context) {
	var req tins.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	tin, err := h.tins.Register(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tin)
}

func (h *TINHandler) Mine(c *gin.Context) {
	tin, err := h.tins.ForUser(userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tin)
}
