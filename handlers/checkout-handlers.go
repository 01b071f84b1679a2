package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Vaibhavtech2006/E-commerce-website/internal/auth"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/ctxmanage"
	"github.com/Vaibhavtech2006/E-commerce-website/pkg/logkey"
)

// Checkout runs phase 1: freeze prices, flip the cart, create the pending
// order. A repeat call on the same cart fails; no second order can exist.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sc, _ := auth.SessionFromContext(c.Request.Context())

	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid cart id"})
		return
	}

	order, err := h.checkout.Checkout(c.Request.Context(), cartID, sc.AccountID)
	if err != nil {
		slog.Error("checkout failed", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.CartID, cartID), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}

	slog.Info("checkout completed", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.CartID, cartID), slog.Int64(logkey.OrderID, order.ID))
	c.JSON(http.StatusOK, order)
}

// ConfirmOrder runs phase 2: the cart's pending order becomes confirmed.
func (h *Handler) ConfirmOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sc, _ := auth.SessionFromContext(c.Request.Context())

	cartID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid cart id"})
		return
	}

	order, err := h.checkout.ConfirmOrder(c.Request.Context(), cartID, sc.AccountID)
	if err != nil {
		slog.Error("order confirmation failed", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.CartID, cartID), slog.String(logkey.ERROR, err.Error()))
		respondDomainError(c, traceId, err)
		return
	}

	slog.Info("order confirmed", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, order.ID))
	c.JSON(http.StatusOK, order)
}
