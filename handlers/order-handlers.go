package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
)

// GetOrders lists the caller's order history.
func (h *Handler) GetOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sc, _ := auth.SessionFromContext(c.Request.Context())

	history, err := h.orders.GetOrdersByUser(c.Request.Context(), sc.AccountID)
	if err != nil {
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": history})
}

// GetOrder returns one order with its frozen items; the OwnsOrder guard has
// already verified ownership.
func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid order id"})
		return
	}

	order, err := h.orders.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		respondDomainError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
