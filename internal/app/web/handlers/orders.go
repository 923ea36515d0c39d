package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/orders"
)

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type OrderHandler struct {
	orders *orders.Service
}

func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{orders: svc}
}

func (h *OrderHandler) Place(c *gin.Context) {
	var req orders.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "failed to decode request body", err)
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	list, err := h.orders.List(userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "failed to decode request body", err)
		return
	}

	order, err := h.orders.Transition(c.Request.Context(), userID(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
